// Package widgets holds the dashboard widgets. Each widget owns its render
// state, refreshes it from the backend and reports the outcome to the
// connectivity monitor.
package widgets

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/coal/fwdash/internal/api"
	"github.com/coal/fwdash/internal/connectivity"
	"github.com/coal/fwdash/internal/metrics"
	"github.com/coal/fwdash/internal/render"
)

// Widget ids, also used as scheduler task ids and metric labels.
const (
	IDStats      = "stats"
	IDTraffic    = "traffic"
	IDTopTalkers = "top_talkers"
	IDGraph      = "graph"
	IDLogs       = "logs"
	IDAlerts     = "alerts"
)

// Widget is a refreshable dashboard panel.
type Widget interface {
	ID() string
	Refresh(ctx context.Context) error
	Snapshot() any
}

// Deps are the collaborators shared by every widget.
type Deps struct {
	Client  *api.Client
	Monitor *connectivity.Monitor
	Metrics *metrics.Collector
	Logger  zerolog.Logger
	Theme   render.Theme

	// Notify is called after a widget applied new render state.
	Notify func(id string)
	// OnPoll is called after every reported refresh.
	OnPoll func(id string, ok bool, took time.Duration, err error)
}

// base implements the refresh bookkeeping shared by all widgets: the
// render-state lock, the sequence guard and outcome reporting.
type base struct {
	id     string
	deps   Deps
	logger zerolog.Logger

	mu      sync.RWMutex
	issued  atomic.Uint64
	applied uint64
}

func (b *base) init(id string, d Deps) {
	b.id = id
	b.deps = d
	b.logger = d.Logger.With().Str("widget", id).Logger()
}

func (b *base) ID() string { return b.id }

// begin stamps a request. Responses are applied in stamp order only.
func (b *base) begin() (uint64, time.Time) {
	return b.issued.Add(1), time.Now()
}

// apply runs fn under the render-state lock unless a newer response has
// already been applied.
func (b *base) apply(seq uint64, fn func()) bool {
	b.mu.Lock()
	if seq <= b.applied {
		b.mu.Unlock()
		b.logger.Debug().Uint64("seq", seq).Msg("stale response dropped")
		return false
	}
	b.applied = seq
	fn()
	b.mu.Unlock()

	if b.deps.Notify != nil {
		b.deps.Notify(b.id)
	}
	return true
}

// succeeded reports a successful poll.
func (b *base) succeeded(start time.Time) {
	took := time.Since(start)
	b.deps.Metrics.ObservePoll(b.id, true, took)
	if b.deps.Monitor != nil {
		b.deps.Monitor.Report(true)
	}
	if b.deps.OnPoll != nil {
		b.deps.OnPoll(b.id, true, took, nil)
	}
	b.logger.Debug().Dur("took", took).Msg("refreshed")
}

// failed reports a failed poll. Failures caused by cancellation of ctx are
// not reported.
func (b *base) failed(ctx context.Context, start time.Time, err error) {
	if ctx.Err() != nil {
		b.logger.Debug().Err(err).Msg("refresh cancelled")
		return
	}
	took := time.Since(start)
	b.deps.Metrics.ObservePoll(b.id, false, took)
	if b.deps.Monitor != nil {
		b.deps.Monitor.Report(false)
	}
	if b.deps.OnPoll != nil {
		b.deps.OnPoll(b.id, false, took, err)
	}
	b.logger.Warn().Err(err).Msg("refresh failed")
}
