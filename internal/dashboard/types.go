package dashboard

import (
	"time"

	"github.com/coal/fwdash/internal/connectivity"
)

// PollEvent is the outcome of one widget refresh.
type PollEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Widget    string    `json:"widget"`
	OK        bool      `json:"ok"`
	TookMs    float64   `json:"took_ms"`
	Error     string    `json:"error,omitempty"`
}

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WidgetUpdate carries the render state of one widget.
type WidgetUpdate struct {
	Widget string `json:"widget"`
	State  any    `json:"state"`
}

// StatsSnapshot is a point-in-time snapshot of poll statistics.
type StatsSnapshot struct {
	TotalPolls    uint64             `json:"total_polls"`
	FailedPolls   uint64             `json:"failed_polls"`
	AvgTookMs     float64            `json:"avg_took_ms"`
	WidgetCounts  map[string]uint64  `json:"widget_counts"`
	FailureCounts map[string]uint64  `json:"failure_counts"`
	Connectivity  connectivity.State `json:"connectivity"`
	TimeSeries    []TimeSeriesPoint  `json:"time_series"`
}

// TimeSeriesPoint is a single point in the 60-minute time series.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Count     uint64    `json:"count"`
	Failed    uint64    `json:"failed"`
}

// InitialState is sent to clients on WebSocket connect.
type InitialState struct {
	Events  []*PollEvent   `json:"events"`
	Stats   *StatsSnapshot `json:"stats"`
	Widgets map[string]any `json:"widgets"`
}
