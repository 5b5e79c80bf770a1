package widgets

import (
	"context"
	"fmt"

	"github.com/coal/fwdash/internal/enrich"
	"github.com/coal/fwdash/internal/graph"
	"github.com/coal/fwdash/internal/render"
)

// NetGraph is the source/destination flow graph.
type NetGraph struct {
	base
	factory render.GraphFactory
	geo     *enrich.Geo
	layout  graph.LayoutOptions

	view     render.GraphView
	limit    int
	elements graph.Elements
}

// NewNetGraph creates the graph widget. geo may be nil.
func NewNetGraph(d Deps, f render.GraphFactory, geo *enrich.Geo, limit int) *NetGraph {
	if limit <= 0 {
		limit = graph.DefaultLimit
	}
	w := &NetGraph{factory: f, geo: geo, limit: limit, layout: graph.DefaultLayout()}
	w.init(IDGraph, d)
	return w
}

// Refresh fetches the flow records, rebuilds the element set, replaces it
// in the view and re-runs the layout.
func (w *NetGraph) Refresh(ctx context.Context) error {
	limit := w.Limit()
	seq, start := w.begin()
	records, err := w.deps.Client.TopTalkers(ctx, limit)
	if err != nil {
		w.failed(ctx, start, err)
		return fmt.Errorf("refreshing graph: %w", err)
	}

	el := graph.Build(records, limit)
	w.geo.Annotate(&el)

	var viewErr error
	w.apply(seq, func() {
		if w.view == nil {
			v, err := w.factory.NewGraphView(render.DefaultGraphStyle(w.deps.Theme))
			if err != nil {
				viewErr = fmt.Errorf("creating graph view: %w", err)
				return
			}
			w.view = v
		}
		w.elements = el
		w.view.SetElements(el)
		w.view.RunLayout(w.layout)
	})
	if viewErr != nil {
		w.logger.Warn().Err(viewErr).Msg("graph update failed")
	}
	w.succeeded(start)
	return nil
}

// Limit returns the number of flow records drawn.
func (w *NetGraph) Limit() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.limit
}

// SetLimit changes the record limit and refreshes. n <= 0 restores the default.
func (w *NetGraph) SetLimit(ctx context.Context, n int) error {
	if n <= 0 {
		n = graph.DefaultLimit
	}
	w.mu.Lock()
	w.limit = n
	w.mu.Unlock()
	return w.Refresh(ctx)
}

// Fit recentres the viewport. It does not refresh.
func (w *NetGraph) Fit() {
	w.mu.RLock()
	v := w.view
	w.mu.RUnlock()
	if v != nil {
		v.Fit()
	}
}

// View returns the graph view, nil before the first successful refresh.
func (w *NetGraph) View() render.GraphView {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.view
}

// Elements returns the element set of the last applied refresh.
func (w *NetGraph) Elements() graph.Elements {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.elements
}

func (w *NetGraph) Snapshot() any { return w.Elements() }
