package widgets

import (
	"context"
	"fmt"
	"strconv"

	"github.com/coal/fwdash/internal/api"
)

// Card is one KPI tile.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Stats shows the four KPI counters. Values survive failed refreshes.
type Stats struct {
	base
	stats  api.Stats
	loaded bool
}

// NewStats creates the KPI widget.
func NewStats(d Deps) *Stats {
	w := &Stats{}
	w.init(IDStats, d)
	return w
}

// Refresh fetches /api/stats and overwrites all four counters.
func (w *Stats) Refresh(ctx context.Context) error {
	seq, start := w.begin()
	st, err := w.deps.Client.Stats(ctx)
	if err != nil {
		w.failed(ctx, start, err)
		return fmt.Errorf("refreshing stats: %w", err)
	}
	w.apply(seq, func() {
		w.stats = st
		w.loaded = true
	})
	w.succeeded(start)
	return nil
}

// Values returns the counters and whether any refresh has succeeded.
func (w *Stats) Values() (api.Stats, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats, w.loaded
}

// Cards returns the tiles in display order. Before the first successful
// refresh the values read "-".
func (w *Stats) Cards() []Card {
	st, ok := w.Values()
	val := func(n int64) string {
		if !ok {
			return "-"
		}
		return strconv.FormatInt(n, 10)
	}
	return []Card{
		{Label: "Total events", Value: val(st.Total)},
		{Label: "Allowed", Value: val(st.Allowed)},
		{Label: "Blocked", Value: val(st.Blocked)},
		{Label: "Open alerts", Value: val(st.OpenAlerts)},
	}
}

func (w *Stats) Snapshot() any { return w.Cards() }
