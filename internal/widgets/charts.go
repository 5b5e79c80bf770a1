package widgets

import (
	"context"
	"fmt"

	"github.com/coal/fwdash/internal/render"
)

// chartSlot holds a widget's chart object. The first upsert constructs the
// chart, later ones update it in place.
type chartSlot struct {
	factory render.ChartFactory
	kind    render.ChartKind
	style   render.ChartStyle
	chart   render.Chart
}

func (s *chartSlot) upsert(labels []string, values []int64) error {
	if s.chart == nil {
		c, err := s.factory.NewChart(render.ChartSpec{
			Kind:   s.kind,
			Labels: labels,
			Values: values,
			Style:  s.style,
		})
		if err != nil {
			return fmt.Errorf("creating %s chart: %w", s.kind, err)
		}
		s.chart = c
		return nil
	}
	s.chart.SetData(labels, values)
	return s.chart.Update()
}

// Traffic is the events-per-minute line chart.
type Traffic struct {
	base
	slot    chartSlot
	minutes int
}

// NewTraffic creates the traffic widget. minutes <= 0 uses the server window.
func NewTraffic(d Deps, f render.ChartFactory, minutes int) *Traffic {
	w := &Traffic{minutes: minutes}
	w.init(IDTraffic, d)
	w.slot = chartSlot{factory: f, kind: render.ChartLine, style: render.LineStyle(d.Theme)}
	return w
}

// Refresh fetches /api/traffic and upserts the chart.
func (w *Traffic) Refresh(ctx context.Context) error {
	seq, start := w.begin()
	samples, err := w.deps.Client.Traffic(ctx, w.minutes)
	if err != nil {
		w.failed(ctx, start, err)
		return fmt.Errorf("refreshing traffic: %w", err)
	}

	labels := make([]string, len(samples))
	values := make([]int64, len(samples))
	for i, s := range samples {
		labels[i] = s.Minute
		values[i] = s.Count
	}

	var renderErr error
	w.apply(seq, func() {
		renderErr = w.slot.upsert(labels, values)
	})
	if renderErr != nil {
		w.logger.Warn().Err(renderErr).Msg("chart update failed")
	}
	w.succeeded(start)
	return nil
}

// Chart returns the chart object, nil before the first successful refresh.
func (w *Traffic) Chart() render.Chart {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.slot.chart
}

func (w *Traffic) Snapshot() any { return chartSnapshot(w.Chart()) }

// TopTalkers is the horizontal bar chart of the busiest flows.
type TopTalkers struct {
	base
	slot  chartSlot
	limit int
}

// NewTopTalkers creates the top talkers widget. limit <= 0 uses the server default.
func NewTopTalkers(d Deps, f render.ChartFactory, limit int) *TopTalkers {
	w := &TopTalkers{limit: limit}
	w.init(IDTopTalkers, d)
	w.slot = chartSlot{factory: f, kind: render.ChartBar, style: render.BarStyle(d.Theme)}
	return w
}

// Refresh fetches /api/top-talkers and upserts the chart. Records are not
// deduplicated.
func (w *TopTalkers) Refresh(ctx context.Context) error {
	seq, start := w.begin()
	records, err := w.deps.Client.TopTalkers(ctx, w.limit)
	if err != nil {
		w.failed(ctx, start, err)
		return fmt.Errorf("refreshing top talkers: %w", err)
	}

	labels := make([]string, len(records))
	values := make([]int64, len(records))
	for i, r := range records {
		labels[i] = TalkerLabel(r.Src, r.Dst)
		values[i] = r.Count
	}

	var renderErr error
	w.apply(seq, func() {
		renderErr = w.slot.upsert(labels, values)
	})
	if renderErr != nil {
		w.logger.Warn().Err(renderErr).Msg("chart update failed")
	}
	w.succeeded(start)
	return nil
}

// Chart returns the chart object, nil before the first successful refresh.
func (w *TopTalkers) Chart() render.Chart {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.slot.chart
}

func (w *TopTalkers) Snapshot() any { return chartSnapshot(w.Chart()) }

// TalkerLabel is the bar label of one flow.
func TalkerLabel(src, dst string) string {
	return src + " → " + dst
}

func chartSnapshot(c render.Chart) any {
	if c == nil {
		return nil
	}
	return c.Spec()
}
