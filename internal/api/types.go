package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Stats is the KPI snapshot returned by /api/stats.
// Missing fields decode as zero.
type Stats struct {
	Total      int64 `json:"total"`
	Allowed    int64 `json:"allowed"`
	Blocked    int64 `json:"blocked"`
	OpenAlerts int64 `json:"open_alerts"`
}

// TrafficSample is one point of the events-per-minute series.
type TrafficSample struct {
	Minute string `json:"minute"`
	Count  int64  `json:"count"`
}

// FlowRecord is one aggregated source → destination count.
type FlowRecord struct {
	Src   string `json:"src"`
	Dst   string `json:"dst"`
	Count int64  `json:"count"`
}

// LogEntry is a single firewall log row.
type LogEntry struct {
	ID        int64      `json:"id"`
	Timestamp string     `json:"timestamp"`
	SrcIP     string     `json:"src_ip"`
	DstIP     string     `json:"dst_ip"`
	Proto     string     `json:"proto"`
	Port      FlexString `json:"port"`
	Action    string     `json:"action"`
}

// LogPage is one page of /api/logs results.
type LogPage struct {
	Rows     []LogEntry `json:"rows"`
	Total    int64      `json:"total"`
	Page     int64      `json:"page,omitempty"`
	PageSize int64      `json:"page_size,omitempty"`
}

// UnmarshalJSON accepts both "rows" and the older "data" key.
func (p *LogPage) UnmarshalJSON(b []byte) error {
	var raw struct {
		Rows     []LogEntry `json:"rows"`
		Data     []LogEntry `json:"data"`
		Total    int64      `json:"total"`
		Page     int64      `json:"page"`
		PageSize int64      `json:"page_size"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Rows = raw.Rows
	if p.Rows == nil {
		p.Rows = raw.Data
	}
	p.Total = raw.Total
	p.Page = raw.Page
	p.PageSize = raw.PageSize
	return nil
}

// Alert status values.
const (
	StatusOpen   = "OPEN"
	StatusAck    = "ACK"
	StatusClosed = "CLOSED"
)

// Alert is a single alert record.
type Alert struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Status    string `json:"status"`
}

// UnmarshalJSON falls back to "description" when "message" is absent,
// which is what the alert engine writes.
func (a *Alert) UnmarshalJSON(b []byte) error {
	type alias Alert
	var raw struct {
		alias
		Description string `json:"description"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*a = Alert(raw.alias)
	if a.Message == "" {
		a.Message = raw.Description
	}
	return nil
}

// FlexString decodes a JSON string, number or null into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(strings.TrimSpace(n.String()))
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
