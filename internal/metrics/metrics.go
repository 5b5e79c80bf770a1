package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the client-side poll and write metrics.
type Collector struct {
	Polls        *prometheus.CounterVec
	PollDuration *prometheus.HistogramVec
	Live         prometheus.Gauge
	LastRefresh  prometheus.Gauge
	AlertWrites  *prometheus.CounterVec
}

// New creates the collectors. Call Register to expose them.
func New() *Collector {
	return &Collector{
		Polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fwdash_polls_total",
				Help: "Widget refreshes by outcome.",
			},
			[]string{"widget", "outcome"},
		),
		PollDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fwdash_poll_duration_seconds",
				Help:    "Widget refresh round trip time.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"widget"},
		),
		Live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fwdash_backend_live",
			Help: "1 when the most recent poll succeeded.",
		}),
		LastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fwdash_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful poll.",
		}),
		AlertWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fwdash_alert_writes_total",
				Help: "Alert status writes by the phase that settled them.",
			},
			[]string{"phase"},
		),
	}
}

// Register registers all collectors.
func (c *Collector) Register(reg prometheus.Registerer) {
	reg.MustRegister(c.Polls, c.PollDuration, c.Live, c.LastRefresh, c.AlertWrites)
}

// ObservePoll records one widget refresh.
func (c *Collector) ObservePoll(widget string, ok bool, took time.Duration) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.Polls.WithLabelValues(widget, outcome).Inc()
	c.PollDuration.WithLabelValues(widget).Observe(took.Seconds())
}

// SetConnectivity mirrors the connectivity state.
func (c *Collector) SetConnectivity(live bool, last time.Time) {
	if c == nil {
		return
	}
	if live {
		c.Live.Set(1)
	} else {
		c.Live.Set(0)
	}
	if !last.IsZero() {
		c.LastRefresh.Set(float64(last.Unix()))
	}
}

// ObserveAlertWrite records which phase settled an alert write.
func (c *Collector) ObserveAlertWrite(phase string) {
	if c == nil {
		return
	}
	c.AlertWrites.WithLabelValues(phase).Inc()
}
