package widgets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/coal/fwdash/internal/api"
	"github.com/coal/fwdash/internal/connectivity"
	"github.com/coal/fwdash/internal/graph"
	"github.com/coal/fwdash/internal/render"
)

// backend is a fake API server that records every request.
type backend struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	requests []string
	handlers map[string]http.HandlerFunc
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{t: t, handlers: map[string]http.HandlerFunc{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		entry := key
		if r.URL.RawQuery != "" {
			entry += "?" + r.URL.RawQuery
		}
		b.requests = append(b.requests, entry)
		h, ok := b.handlers[key]
		b.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	b.handlers[method+" "+path] = h
	b.mu.Unlock()
}

func (b *backend) json(method, path string, v any) {
	b.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	})
}

func (b *backend) status(method, path string, code int) {
	b.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func (b *backend) log() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *backend) reset() {
	b.mu.Lock()
	b.requests = nil
	b.mu.Unlock()
}

func (b *backend) deps() Deps {
	b.t.Helper()
	c, err := api.NewClient(b.srv.URL, 2*time.Second, zerolog.Nop())
	if err != nil {
		b.t.Fatalf("NewClient: %v", err)
	}
	return Deps{
		Client:  c,
		Monitor: connectivity.NewMonitor(),
		Logger:  zerolog.Nop(),
		Theme:   render.ThemeDark,
	}
}

type fakeChart struct {
	spec    render.ChartSpec
	updates int
}

func (c *fakeChart) SetData(l []string, v []int64) { c.spec.Labels, c.spec.Values = l, v }
func (c *fakeChart) Update() error                  { c.updates++; return nil }
func (c *fakeChart) Spec() render.ChartSpec         { return c.spec }

type fakeChartFactory struct {
	made []*fakeChart
}

func (f *fakeChartFactory) NewChart(spec render.ChartSpec) (render.Chart, error) {
	c := &fakeChart{spec: spec}
	f.made = append(f.made, c)
	return c, nil
}

type fakeGraphView struct {
	style   render.GraphStyle
	el      graph.Elements
	layouts int
	fits    int
}

func (v *fakeGraphView) SetElements(el graph.Elements)   { v.el = el }
func (v *fakeGraphView) RunLayout(graph.LayoutOptions) { v.layouts++ }
func (v *fakeGraphView) Fit()                          { v.fits++ }

type fakeGraphFactory struct {
	made []*fakeGraphView
}

func (f *fakeGraphFactory) NewGraphView(style render.GraphStyle) (render.GraphView, error) {
	v := &fakeGraphView{style: style}
	f.made = append(f.made, v)
	return v, nil
}

func TestStats_OverwritesAndKeepsStaleValuesOnFailure(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/stats", map[string]any{"total": 10, "blocked": 2})
	d := b.deps()
	var notified []string
	d.Notify = func(id string) { notified = append(notified, id) }
	w := NewStats(d)

	if _, ok := w.Values(); ok {
		t.Fatal("no values before first refresh")
	}
	if w.Cards()[0].Value != "-" {
		t.Errorf("expected placeholder, got %q", w.Cards()[0].Value)
	}

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	st, _ := w.Values()
	if st.Total != 10 || st.Blocked != 2 || st.Allowed != 0 || st.OpenAlerts != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
	if !d.Monitor.State().Live {
		t.Error("monitor should be live after success")
	}
	if len(notified) != 1 || notified[0] != IDStats {
		t.Errorf("unexpected notifications %v", notified)
	}

	b.status("GET", "/api/stats", http.StatusInternalServerError)
	err := w.Refresh(context.Background())
	if !errors.Is(err, api.ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
	if d.Monitor.State().Live {
		t.Error("monitor should be offline after failure")
	}
	if st2, _ := w.Values(); st2 != st {
		t.Errorf("stale values must be kept: %+v", st2)
	}
	if len(notified) != 1 {
		t.Error("failed refresh must not notify")
	}
}

func TestStats_CancelledRefreshIsNotReported(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/stats", map[string]any{"total": 1})
	d := b.deps()
	w := NewStats(d)
	if err := w.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Refresh(ctx); err == nil {
		t.Fatal("expected error from cancelled refresh")
	}
	if !d.Monitor.State().Live {
		t.Error("cancellation must not flip the monitor offline")
	}
}

func TestRefresh_StaleResponseIsNotApplied(t *testing.T) {
	b := newBackend(t)
	arrived := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	b.handle("GET", "/api/stats", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(arrived)
			<-release
			io.WriteString(w, `{"total": 1}`)
			return
		}
		io.WriteString(w, `{"total": 2}`)
	})
	w := NewStats(b.deps())

	done := make(chan error, 1)
	go func() { done <- w.Refresh(context.Background()) }()
	<-arrived

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if st, _ := w.Values(); st.Total != 2 {
		t.Errorf("older response overwrote newer one: total = %d", st.Total)
	}
}

func TestTraffic_ConstructsChartOnce(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/traffic", []map[string]any{
		{"minute": "10:00", "count": 3},
		{"minute": "10:01", "count": 7},
	})
	f := &fakeChartFactory{}
	w := NewTraffic(b.deps(), f, 0)

	if w.Chart() != nil {
		t.Fatal("no chart before first refresh")
	}
	for i := 0; i < 3; i++ {
		if err := w.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh %d: %v", i, err)
		}
	}
	if len(f.made) != 1 {
		t.Fatalf("expected 1 chart construction, got %d", len(f.made))
	}
	c := f.made[0]
	if w.Chart() != render.Chart(c) {
		t.Error("widget must keep the constructed chart")
	}
	if c.updates != 2 {
		t.Errorf("expected 2 in-place updates, got %d", c.updates)
	}
	spec := c.Spec()
	if spec.Kind != render.ChartLine || !spec.Style.Fill || spec.Style.Tension != 0.35 {
		t.Errorf("unexpected chart spec %+v", spec)
	}
	if strings.Join(spec.Labels, ",") != "10:00,10:01" || spec.Values[1] != 7 {
		t.Errorf("unexpected data %v %v", spec.Labels, spec.Values)
	}
}

func TestTraffic_FailureDoesNotConstruct(t *testing.T) {
	b := newBackend(t)
	b.status("GET", "/api/traffic", http.StatusBadGateway)
	f := &fakeChartFactory{}
	w := NewTraffic(b.deps(), f, 30)
	if err := w.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(f.made) != 0 {
		t.Error("chart constructed on failure")
	}
	if got := b.log(); len(got) != 1 || got[0] != "GET /api/traffic?minutes=30" {
		t.Errorf("unexpected requests %v", got)
	}
}

func TestTopTalkers_LabelsWithoutDedup(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/top-talkers", []map[string]any{
		{"src": "10.0.0.1", "dst": "8.8.8.8", "count": 5},
		{"src": "10.0.0.1", "dst": "8.8.8.8", "count": 5},
	})
	f := &fakeChartFactory{}
	w := NewTopTalkers(b.deps(), f, 0)
	if err := w.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	spec := f.made[0].Spec()
	if len(spec.Labels) != 2 || spec.Labels[0] != "10.0.0.1 → 8.8.8.8" {
		t.Errorf("unexpected labels %v", spec.Labels)
	}
	if spec.Kind != render.ChartBar || !spec.Style.Horizontal {
		t.Errorf("unexpected spec %+v", spec)
	}
}

func TestNetGraph_BuildsAndRelayoutsEveryRefresh(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/top-talkers", []map[string]any{
		{"src": "10.0.0.1", "dst": "8.8.8.8", "count": 5},
		{"src": "10.0.0.1", "dst": "8.8.8.8", "count": 5},
	})
	f := &fakeGraphFactory{}
	w := NewNetGraph(b.deps(), f, nil, 0)

	for i := 0; i < 2; i++ {
		if err := w.Refresh(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if len(f.made) != 1 {
		t.Fatalf("expected 1 graph view, got %d", len(f.made))
	}
	v := f.made[0]
	if v.layouts != 2 {
		t.Errorf("expected layout on every refresh, got %d", v.layouts)
	}
	if len(v.el.Nodes) != 2 || len(v.el.Edges) != 2 {
		t.Errorf("expected 2 nodes and 2 edges, got %d/%d", len(v.el.Nodes), len(v.el.Edges))
	}
	if v.style.SrcColor == v.style.DstColor {
		t.Error("source and destination nodes must be styled distinctly")
	}
	if got := b.log()[0]; got != "GET /api/top-talkers?limit=60" {
		t.Errorf("unexpected request %s", got)
	}

	b.reset()
	w.Fit()
	if v.fits != 1 || len(b.log()) != 0 {
		t.Error("Fit must only recentre the view")
	}

	if err := w.SetLimit(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if w.Limit() != 1 {
		t.Errorf("expected limit 1, got %d", w.Limit())
	}
	if len(v.el.Edges) != 1 {
		t.Errorf("expected truncation to 1 edge, got %d", len(v.el.Edges))
	}
	if got := b.log(); len(got) != 1 || got[0] != "GET /api/top-talkers?limit=1" {
		t.Errorf("SetLimit should refresh once, got %v", got)
	}
}

func emptyLogs(b *backend) {
	b.json("GET", "/api/logs", map[string]any{"rows": []any{}, "total": 0})
}

func TestLogs_Pagination(t *testing.T) {
	b := newBackend(t)
	emptyLogs(b)
	w := NewLogs(b.deps(), 0)
	ctx := context.Background()

	if err := w.Prev(ctx); err != nil {
		t.Fatal(err)
	}
	if w.Filter().Page != 1 || len(b.log()) != 0 {
		t.Error("Prev on page 1 must be a no-op")
	}

	for i := 0; i < 3; i++ {
		if err := w.Next(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if w.Filter().Page != 4 {
		t.Errorf("expected page 4, got %d", w.Filter().Page)
	}
	if err := w.Prev(ctx); err != nil {
		t.Fatal(err)
	}
	if w.Filter().Page != 3 {
		t.Errorf("expected page 3, got %d", w.Filter().Page)
	}
	log := b.log()
	if len(log) != 4 || log[3] != "GET /api/logs?page=3&page_size=50" {
		t.Errorf("unexpected requests %v", log)
	}
}

func TestLogs_SetPageClampsAndKeepsFilters(t *testing.T) {
	b := newBackend(t)
	emptyLogs(b)
	w := NewLogs(b.deps(), 0)
	ctx := context.Background()

	w.SetAction(ctx, "ALLOW")
	if err := w.SetPage(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if f := w.Filter(); f.Page != 5 || f.Action != "ALLOW" {
		t.Errorf("unexpected filter %+v", f)
	}
	w.SetPage(ctx, -3)
	if w.Filter().Page != 1 {
		t.Errorf("expected page 1, got %d", w.Filter().Page)
	}
	log := b.log()
	if log[1] != "GET /api/logs?action=ALLOW&page=5&page_size=50" {
		t.Errorf("unexpected request %s", log[1])
	}
}

func TestLogs_LoadIssuesOneRequest(t *testing.T) {
	b := newBackend(t)
	emptyLogs(b)
	w := NewLogs(b.deps(), 0)
	ctx := context.Background()

	if err := w.Load(ctx, FilterState{Action: "BLOCK", Page: 3, PageSize: 999}); err != nil {
		t.Fatal(err)
	}
	want := []string{"GET /api/logs?action=BLOCK&page=3&page_size=50"}
	if got := b.log(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected requests %v", got)
	}

	w.Load(ctx, FilterState{Page: 0})
	if f := w.Filter(); f.Page != 1 || f.Action != "" || f.PageSize != DefaultPageSize {
		t.Errorf("unexpected filter %+v", f)
	}
}

func TestLogs_FiltersAndReset(t *testing.T) {
	b := newBackend(t)
	emptyLogs(b)
	w := NewLogs(b.deps(), 25)
	ctx := context.Background()

	w.Next(ctx)
	if err := w.SetAction(ctx, "BLOCK"); err != nil {
		t.Fatal(err)
	}
	if f := w.Filter(); f.Page != 1 || f.Action != "BLOCK" {
		t.Errorf("filter change should return to page 1: %+v", f)
	}
	w.SetQuery(ctx, " 10.0.0 ")
	w.SetPort(ctx, "443")
	w.SetProto(ctx, "TCP")
	w.SetIP(ctx, "8.8.8.8")
	w.SetRange(ctx, "2024-01-01", "2024-01-02")

	log := b.log()
	want := "GET /api/logs?action=BLOCK&from=2024-01-01&ip=8.8.8.8&page=1&page_size=25&port=443&proto=TCP&q=10.0.0&to=2024-01-02"
	if log[len(log)-1] != want {
		t.Errorf("unexpected query\n got %s\nwant %s", log[len(log)-1], want)
	}

	w.Next(ctx)
	if err := w.ResetFilters(ctx); err != nil {
		t.Fatal(err)
	}
	if f := w.Filter(); f != (FilterState{Page: 1, PageSize: 25}) {
		t.Errorf("reset should clear every filter: %+v", f)
	}
	log = b.log()
	if log[len(log)-1] != "GET /api/logs?page=1&page_size=25" {
		t.Errorf("unexpected reset query %s", log[len(log)-1])
	}
}

func TestLogs_EmptyAndPopulatedTable(t *testing.T) {
	b := newBackend(t)
	emptyLogs(b)
	w := NewLogs(b.deps(), 0)
	if err := w.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	tbl := w.Table()
	if len(tbl.Rows) != 1 || len(tbl.Rows[0].Cells) != 1 {
		t.Fatalf("expected a single placeholder row, got %+v", tbl.Rows)
	}
	if c := tbl.Rows[0].Cells[0]; c.Text != "No results" || c.Span != 7 {
		t.Errorf("unexpected placeholder %+v", c)
	}
	if tbl.Footer != "0 results" {
		t.Errorf("unexpected footer %q", tbl.Footer)
	}

	b.handle("GET", "/api/logs", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[
			{"id":1,"src_ip":"10.0.0.1","dst_ip":"8.8.8.8","proto":"TCP","port":443,"action":"ALLOW"},
			{"id":2,"src_ip":"<b>x</b>","port":null,"action":"DENY"},
			{"id":3,"action":"LOG"}],"total":120}`)
	})
	if err := w.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	tbl = w.Table()
	if len(tbl.Rows) != 3 || tbl.Footer != "120 results" {
		t.Fatalf("unexpected table %+v", tbl)
	}
	row := tbl.Rows[0].Cells
	if row[5].Text != "443" || row[6].Class != "allow" {
		t.Errorf("unexpected row %+v", row)
	}
	if tbl.Rows[1].Cells[2].Text != "&lt;b&gt;x&lt;/b&gt;" || tbl.Rows[1].Cells[6].Class != "block" {
		t.Errorf("unexpected row %+v", tbl.Rows[1].Cells)
	}
	if tbl.Rows[2].Cells[6].Class != "" {
		t.Error("unknown action has no class")
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from, action string
		want         string
		wantErr      bool
	}{
		{"OPEN", ActionAck, "ACK", false},
		{"open", ActionAck, "ACK", false},
		{"ACK", ActionAck, "ACK", false},
		{"CLOSED", ActionAck, "", true},
		{"OPEN", ActionClose, "CLOSED", false},
		{"ACK", ActionClose, "CLOSED", false},
		{"CLOSED", ActionClose, "CLOSED", false},
		{"", ActionAck, "ACK", false},
		{"weird", ActionClose, "CLOSED", false},
		{"OPEN", "reopen", "", true},
	}
	for _, tc := range tests {
		got, err := Transition(tc.from, tc.action)
		if (err != nil) != tc.wantErr {
			t.Errorf("Transition(%q, %q) err = %v", tc.from, tc.action, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrTransitionNotAllowed) {
			t.Errorf("expected ErrTransitionNotAllowed, got %v", err)
		}
		if got != tc.want {
			t.Errorf("Transition(%q, %q) = %q, want %q", tc.from, tc.action, got, tc.want)
		}
	}
}

func TestAlerts_AckFallsBackToLegacyThenReloads(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/alerts", []map[string]any{{"id": 7, "status": "open", "message": "scan"}})
	var patchBody map[string]string
	b.handle("PATCH", "/api/alerts/7", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&patchBody)
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	b.status("POST", "/api/alerts/7/ack", http.StatusOK)

	w := NewAlerts(b.deps(), nil, 0)
	ctx := context.Background()
	if err := w.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	b.reset()

	res, err := w.Ack(ctx, 7)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Phase != PhaseLegacy || res.Err != nil {
		t.Errorf("unexpected result %+v", res)
	}
	if patchBody["status"] != "ACK" {
		t.Errorf("unexpected PATCH body %v", patchBody)
	}
	want := []string{"PATCH /api/alerts/7", "POST /api/alerts/7/ack", "GET /api/alerts"}
	if got := b.log(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected request order %v", got)
	}
}

func TestAlerts_PrimaryWriteSkipsLegacy(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/alerts", []map[string]any{{"id": 3, "status": "ACK"}})
	b.status("PATCH", "/api/alerts/3", http.StatusOK)

	w := NewAlerts(b.deps(), nil, 0)
	if err := w.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	b.reset()

	res, err := w.Close(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Phase != PhasePrimary {
		t.Errorf("unexpected phase %s", res.Phase)
	}
	want := []string{"PATCH /api/alerts/3", "GET /api/alerts"}
	if got := b.log(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected requests %v", got)
	}
}

func TestAlerts_DoubleFailureIsReturnedAndListReloads(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/alerts", []map[string]any{{"id": 9, "status": "OPEN"}})
	b.status("PATCH", "/api/alerts/9", http.StatusInternalServerError)
	b.status("POST", "/api/alerts/9/closed", http.StatusInternalServerError)

	w := NewAlerts(b.deps(), nil, 0)
	if err := w.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	res, err := w.Close(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if res.Phase != PhaseFailed || !errors.Is(res.Err, api.ErrNetwork) {
		t.Errorf("unexpected result %+v", res)
	}
	log := b.log()
	if log[len(log)-1] != "GET /api/alerts" {
		t.Errorf("list must reload after a failed write: %v", log)
	}
}

func TestAlerts_AckOnClosedIsRejectedLocally(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/alerts", []map[string]any{{"id": 4, "status": "CLOSED"}})
	w := NewAlerts(b.deps(), nil, 0)
	if err := w.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	b.reset()

	res, _ := w.Ack(context.Background(), 4)
	if !errors.Is(res.Err, ErrTransitionNotAllowed) {
		t.Errorf("expected rejection, got %+v", res)
	}
	if len(b.log()) != 0 {
		t.Errorf("no request expected, got %v", b.log())
	}
}

func TestAlerts_UnknownIDIsRejectedLocally(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/alerts", []map[string]any{{"id": 1, "status": "OPEN"}})
	w := NewAlerts(b.deps(), nil, 0)
	ctx := context.Background()
	if err := w.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	b.reset()

	for _, act := range []func(context.Context, int64) (WriteResult, error){w.Ack, w.Close} {
		res, err := act(ctx, 500)
		if err != nil {
			t.Fatal(err)
		}
		if res.Phase != PhaseFailed || !errors.Is(res.Err, ErrUnknownAlert) {
			t.Errorf("expected ErrUnknownAlert, got %+v", res)
		}
	}
	if len(b.log()) != 0 {
		t.Errorf("no request expected, got %v", b.log())
	}
}

func TestAlerts_StatusFilterAndTable(t *testing.T) {
	b := newBackend(t)
	b.json("GET", "/api/alerts", []map[string]any{
		{"id": 1, "severity": "HIGH", "message": "<script>alert(1)</script>", "status": "OPEN"},
		{"id": 2, "description": "from engine"},
	})
	w := NewAlerts(b.deps(), nil, 0)
	if err := w.SetStatusFilter(context.Background(), "open"); err != nil {
		t.Fatal(err)
	}
	if got := b.log()[0]; got != "GET /api/alerts?status=OPEN" {
		t.Errorf("unexpected request %s", got)
	}

	tbl := w.Table()
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	first := tbl.Rows[0].Cells
	if first[3].Text != "<script>alert(1)</script>" {
		t.Errorf("message should be shown literally: %q", first[3].Text)
	}
	if first[2].Class != "danger" || first[4].Class != "danger-subtle" {
		t.Errorf("unexpected badge classes %+v", first)
	}
	second := tbl.Rows[1].Cells
	if second[2].Text != "INFO" || second[2].Class != "secondary" {
		t.Errorf("missing severity should read INFO: %+v", second[2])
	}
	if second[3].Text != "from engine" {
		t.Errorf("description fallback missing: %+v", second[3])
	}
	if second[4].Text != "OPEN" || second[4].Class != "danger-subtle" {
		t.Errorf("missing status should read OPEN: %+v", second[4])
	}

	empty := AlertTable(nil)
	if c := empty.Rows[0].Cells[0]; c.Text != "No alerts" || c.Span != 6 {
		t.Errorf("unexpected empty row %+v", c)
	}
}

func TestAlertTable_TextIsLiteral(t *testing.T) {
	msg := `AT&T <b> "x"`
	tbl := AlertTable([]api.Alert{{ID: 1, Message: msg}})
	if got := tbl.Rows[0].Cells[3].Text; got != msg {
		t.Errorf("message cell = %q, want %q", got, msg)
	}
	if out := tbl.Text(200); !strings.Contains(out, msg) {
		t.Errorf("rendered table lost the literal message:\n%s", out)
	}
}

func TestBadges(t *testing.T) {
	sev := map[string]string{"CRITICAL": "danger", "high": "danger", "MEDIUM": "warning", "LOW": "success", "INFO": "secondary", "bogus": "secondary"}
	for in, want := range sev {
		if _, got := SeverityBadge(in); got != want {
			t.Errorf("SeverityBadge(%q) = %s, want %s", in, got, want)
		}
	}
	st := map[string]string{"OPEN": "danger-subtle", "ack": "warning", "CLOSED": "success", "bogus": "danger-subtle"}
	for in, want := range st {
		if _, got := StatusBadge(in); got != want {
			t.Errorf("StatusBadge(%q) = %s, want %s", in, got, want)
		}
	}
	if text, _ := StatusBadge("bogus"); text != "bogus" {
		t.Error("unrecognised status text is shown as received")
	}
}
