package widgets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/coal/fwdash/internal/api"
	"github.com/coal/fwdash/internal/render"
)

// DefaultPageSize is the log page size when none is configured.
const DefaultPageSize = 50

// LogColumns are the log table headers.
var LogColumns = []string{"ID", "Time", "Source", "Destination", "Proto", "Port", "Action"}

// FilterState is the server-side filter and pagination of the log view.
// Page is never below 1.
type FilterState struct {
	Query    string `json:"q"`
	Action   string `json:"action"`
	Proto    string `json:"proto"`
	Port     string `json:"port"`
	IP       string `json:"ip"`
	From     string `json:"from"`
	To       string `json:"to"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// LogQuery builds the request query. Empty filters are omitted.
func (f FilterState) LogQuery() api.LogQuery {
	return api.LogQuery{
		Query:    strings.TrimSpace(f.Query),
		Action:   f.Action,
		Proto:    f.Proto,
		Port:     strings.TrimSpace(f.Port),
		IP:       strings.TrimSpace(f.IP),
		From:     f.From,
		To:       f.To,
		Page:     f.Page,
		PageSize: f.PageSize,
	}
}

// cleared returns f with every filter empty and page 1.
func (f FilterState) cleared() FilterState {
	return FilterState{Page: 1, PageSize: f.PageSize}
}

// Logs is the filtered, paginated log table.
type Logs struct {
	base
	filter FilterState
	page   api.LogPage
	loaded bool
}

// NewLogs creates the log widget. pageSize <= 0 uses DefaultPageSize.
func NewLogs(d Deps, pageSize int) *Logs {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	w := &Logs{filter: FilterState{Page: 1, PageSize: pageSize}}
	w.init(IDLogs, d)
	return w
}

// Filter returns the current filter state.
func (w *Logs) Filter() FilterState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.filter
}

// Refresh fetches the page described by the current filter state.
func (w *Logs) Refresh(ctx context.Context) error {
	q := w.Filter().LogQuery()
	seq, start := w.begin()
	page, err := w.deps.Client.Logs(ctx, q)
	if err != nil {
		w.failed(ctx, start, err)
		return fmt.Errorf("refreshing logs: %w", err)
	}
	w.apply(seq, func() {
		w.page = page
		w.loaded = true
	})
	w.succeeded(start)
	return nil
}

// Reload is Refresh under the name the log view uses for user actions.
func (w *Logs) Reload(ctx context.Context) error {
	return w.Refresh(ctx)
}

// SetFilter applies fn to the filter state, returns to page 1 and reloads.
func (w *Logs) SetFilter(ctx context.Context, fn func(*FilterState)) error {
	w.mu.Lock()
	size := w.filter.PageSize
	fn(&w.filter)
	w.filter.Page = 1
	w.filter.PageSize = size
	w.mu.Unlock()
	return w.Reload(ctx)
}

func (w *Logs) SetQuery(ctx context.Context, q string) error {
	return w.SetFilter(ctx, func(f *FilterState) { f.Query = q })
}

func (w *Logs) SetAction(ctx context.Context, action string) error {
	return w.SetFilter(ctx, func(f *FilterState) { f.Action = action })
}

func (w *Logs) SetProto(ctx context.Context, proto string) error {
	return w.SetFilter(ctx, func(f *FilterState) { f.Proto = proto })
}

func (w *Logs) SetPort(ctx context.Context, port string) error {
	return w.SetFilter(ctx, func(f *FilterState) { f.Port = port })
}

func (w *Logs) SetIP(ctx context.Context, ip string) error {
	return w.SetFilter(ctx, func(f *FilterState) { f.IP = ip })
}

// SetRange sets the from/to timestamp bounds.
func (w *Logs) SetRange(ctx context.Context, from, to string) error {
	return w.SetFilter(ctx, func(f *FilterState) { f.From, f.To = from, to })
}

// ResetFilters clears every filter, returns to page 1 and reloads.
func (w *Logs) ResetFilters(ctx context.Context) error {
	w.mu.Lock()
	w.filter = w.filter.cleared()
	w.mu.Unlock()
	return w.Reload(ctx)
}

// Prev moves one page back. On page 1 it does nothing.
func (w *Logs) Prev(ctx context.Context) error {
	w.mu.Lock()
	if w.filter.Page <= 1 {
		w.mu.Unlock()
		return nil
	}
	w.filter.Page--
	w.mu.Unlock()
	return w.Reload(ctx)
}

// Next moves one page forward. There is no upper bound; past the last
// page the server returns an empty page.
func (w *Logs) Next(ctx context.Context) error {
	w.mu.Lock()
	w.filter.Page++
	w.mu.Unlock()
	return w.Reload(ctx)
}

// SetPage jumps to page n, clamped to 1, keeping the filters.
func (w *Logs) SetPage(ctx context.Context, n int) error {
	w.mu.Lock()
	w.filter.Page = max(1, n)
	w.mu.Unlock()
	return w.Reload(ctx)
}

// Load replaces the filters and page with f in one step and reloads once.
// The configured page size is kept and the page is clamped to 1.
func (w *Logs) Load(ctx context.Context, f FilterState) error {
	w.mu.Lock()
	f.PageSize = w.filter.PageSize
	f.Page = max(1, f.Page)
	w.filter = f
	w.mu.Unlock()
	return w.Reload(ctx)
}

// Page returns the last applied page and whether one has been applied.
func (w *Logs) Page() (api.LogPage, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.page, w.loaded
}

// Table builds the log table of the last applied page.
func (w *Logs) Table() render.Table {
	page, _ := w.Page()
	return LogTable(page)
}

// LogTable builds the table for one page. Every server value is escaped.
func LogTable(page api.LogPage) render.Table {
	t := render.Table{
		Columns: LogColumns,
		Footer:  strconv.FormatInt(page.Total, 10) + " results",
	}
	if len(page.Rows) == 0 {
		t.Rows = []render.Row{render.EmptyRow("No results", len(LogColumns))}
		return t
	}
	t.Rows = make([]render.Row, 0, len(page.Rows))
	for _, r := range page.Rows {
		t.Rows = append(t.Rows, render.Row{Cells: []render.Cell{
			{Text: strconv.FormatInt(r.ID, 10)},
			{Text: render.Escape(r.Timestamp)},
			{Text: render.Escape(r.SrcIP)},
			{Text: render.Escape(r.DstIP)},
			{Text: render.Escape(r.Proto)},
			{Text: render.Escape(r.Port.String())},
			{Text: render.Escape(r.Action), Class: ActionClass(r.Action)},
		}})
	}
	return t
}

// ActionClass is the cell class of a log action.
func ActionClass(action string) string {
	switch action {
	case "ALLOW":
		return "allow"
	case "BLOCK", "DENY":
		return "block"
	}
	return ""
}

// logsSnapshot is the mirror representation of the log view.
type logsSnapshot struct {
	Filter FilterState  `json:"filter"`
	Table  render.Table `json:"table"`
}

func (w *Logs) Snapshot() any {
	return logsSnapshot{Filter: w.Filter(), Table: w.Table()}
}
