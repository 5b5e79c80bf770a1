package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
)

// LogQuery is the query string of /api/logs. Empty filters are omitted.
type LogQuery struct {
	Query    string `url:"q,omitempty"`
	Action   string `url:"action,omitempty"`
	Proto    string `url:"proto,omitempty"`
	Port     string `url:"port,omitempty"`
	IP       string `url:"ip,omitempty"`
	From     string `url:"from,omitempty"`
	To       string `url:"to,omitempty"`
	Page     int    `url:"page"`
	PageSize int    `url:"page_size"`
}

// Values encodes the query.
func (q LogQuery) Values() (url.Values, error) {
	v, err := query.Values(q)
	if err != nil {
		return nil, fmt.Errorf("encoding log query: %w", err)
	}
	return v, nil
}

// Stats fetches the KPI snapshot.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.GetJSON(ctx, "/api/stats", nil, &s)
	return s, err
}

// Traffic fetches the events-per-minute series. minutes <= 0 uses the server default.
func (c *Client) Traffic(ctx context.Context, minutes int) ([]TrafficSample, error) {
	var out []TrafficSample
	err := c.GetJSON(ctx, "/api/traffic", limitValues("minutes", minutes), &out)
	return out, err
}

// TopTalkers fetches flow records ordered by count, highest first.
// limit <= 0 uses the server default.
func (c *Client) TopTalkers(ctx context.Context, limit int) ([]FlowRecord, error) {
	var out []FlowRecord
	err := c.GetJSON(ctx, "/api/top-talkers", limitValues("limit", limit), &out)
	return out, err
}

// Logs fetches one filtered page of log rows.
func (c *Client) Logs(ctx context.Context, q LogQuery) (LogPage, error) {
	var page LogPage
	values, err := q.Values()
	if err != nil {
		return page, err
	}
	err = c.GetJSON(ctx, "/api/logs", values, &page)
	return page, err
}

// Alerts fetches alerts, optionally filtered by status. limit <= 0 uses the server default.
func (c *Client) Alerts(ctx context.Context, status string, limit int) ([]Alert, error) {
	values := limitValues("limit", limit)
	if status != "" {
		if values == nil {
			values = url.Values{}
		}
		values.Set("status", status)
	}
	var out []Alert
	err := c.GetJSON(ctx, "/api/alerts", values, &out)
	return out, err
}

// PatchAlertStatus is the primary status write: PATCH /api/alerts/{id} {"status": ...}.
func (c *Client) PatchAlertStatus(ctx context.Context, id int64, status string) error {
	body := struct {
		Status string `json:"status"`
	}{Status: status}
	return c.PatchJSON(ctx, "/api/alerts/"+strconv.FormatInt(id, 10), body)
}

// PostAlertStatusLegacy is the older write shape: POST /api/alerts/{id}/{status}.
func (c *Client) PostAlertStatusLegacy(ctx context.Context, id int64, status string) error {
	path := fmt.Sprintf("/api/alerts/%d/%s", id, url.PathEscape(strings.ToLower(status)))
	return c.PostJSON(ctx, path, nil)
}

func limitValues(key string, n int) url.Values {
	if n <= 0 {
		return nil
	}
	return url.Values{key: []string{strconv.Itoa(n)}}
}
