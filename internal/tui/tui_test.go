package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/coal/fwdash/internal/app"
	"github.com/coal/fwdash/internal/config"
)

type recorder struct {
	mu   sync.Mutex
	reqs []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.reqs = append(r.reqs, s)
	r.mu.Unlock()
}

func (r *recorder) has(s string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.reqs {
		if q == s {
			return true
		}
	}
	return false
}

func newDashboard(t *testing.T) (*app.Dashboard, *recorder) {
	t.Helper()
	rec := &recorder{}
	reply := func(v any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(v)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", reply(map[string]int{"total": 42}))
	mux.HandleFunc("/api/logs", reply(map[string]any{"rows": []any{}, "total": 0}))
	mux.HandleFunc("/api/alerts", reply([]map[string]any{{"id": 7, "severity": "LOW", "message": "probe", "status": "OPEN"}}))
	mux.HandleFunc("/api/alerts/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			entry += "?" + r.URL.RawQuery
		}
		rec.add(entry)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Server = srv.URL
	d, err := app.New(app.Options{Config: cfg, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Stop() })
	return d, rec
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and runs the returned command synchronously, feeding its
// result back into the model.
func press(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	if out := cmd(); out != nil {
		m.Update(out)
	}
}

func TestModel_OverviewAndFooter(t *testing.T) {
	d, _ := newDashboard(t)
	m := New(context.Background(), d)

	out := m.View()
	if !strings.Contains(out, "Offline") || !strings.Contains(out, "Last refresh: never") {
		t.Errorf("expected offline footer:\n%s", out)
	}
	if !strings.Contains(out, "Total events") {
		t.Errorf("missing stat cards:\n%s", out)
	}

	if err := d.Stats.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	out = m.View()
	if !strings.Contains(out, "Live") || !strings.Contains(out, "42") {
		t.Errorf("expected live footer and refreshed value:\n%s", out)
	}
}

func TestModel_LogsPagingAndSearch(t *testing.T) {
	d, rec := newDashboard(t)
	m := New(context.Background(), d)

	press(m, key("2"))
	if m.view != viewLogs {
		t.Fatalf("expected logs view, got %d", m.view)
	}
	press(m, key("n"))
	if !rec.has("GET /api/logs?page=2&page_size=50") {
		t.Errorf("next page not requested: %v", rec.reqs)
	}

	press(m, key("/"))
	for _, r := range "scan" {
		press(m, key(string(r)))
	}
	if !strings.Contains(m.View(), "search: scan") {
		t.Errorf("prompt not shown:\n%s", m.View())
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !rec.has("GET /api/logs?page=1&page_size=50&q=scan") {
		t.Errorf("search not requested: %v", rec.reqs)
	}
	if got := d.Logs.Filter().Query; got != "scan" {
		t.Errorf("expected query scan, got %q", got)
	}
}

func TestModel_FailedAlertWriteShowsToast(t *testing.T) {
	d, rec := newDashboard(t)
	m := New(context.Background(), d)

	press(m, key("3"))
	if len(d.Alerts.List()) != 1 {
		t.Fatal("alerts not loaded on view entry")
	}
	press(m, key("a"))
	if !rec.has("PATCH /api/alerts/7") || !rec.has("POST /api/alerts/7/ack") {
		t.Errorf("expected both write phases: %v", rec.reqs)
	}
	if !strings.Contains(m.View(), "Failed to update alert #7") {
		t.Errorf("missing failure toast:\n%s", m.View())
	}
}

func TestCycle(t *testing.T) {
	if got := cycle(statusFilters, ""); got != "OPEN" {
		t.Errorf("got %q", got)
	}
	if got := cycle(statusFilters, "CLOSED"); got != "" {
		t.Errorf("got %q", got)
	}
	if got := cycle(actionFilters, "bogus"); got != "" {
		t.Errorf("got %q", got)
	}
	if got := cycle(actionFilters, "BLOCK"); got != "DENY" {
		t.Errorf("got %q", got)
	}
	if got := cycle(actionFilters, "DENY"); got != "" {
		t.Errorf("got %q", got)
	}
}
