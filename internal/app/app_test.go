package app

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/coal/fwdash/internal/audit"
	"github.com/coal/fwdash/internal/config"
	"github.com/coal/fwdash/internal/widgets"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	reply := func(v any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(v)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", reply(map[string]int{"total": 10, "allowed": 7, "blocked": 3, "open_alerts": 1}))
	mux.HandleFunc("/api/traffic", reply([]map[string]any{{"minute": "10:00", "count": 4}, {"minute": "10:01", "count": 6}}))
	mux.HandleFunc("/api/top-talkers", reply([]map[string]any{{"src": "10.0.0.1", "dst": "8.8.8.8", "count": 5}}))
	mux.HandleFunc("/api/logs", reply(map[string]any{"rows": []any{}, "total": 0}))
	mux.HandleFunc("/api/alerts", reply([]map[string]any{{"id": 7, "severity": "HIGH", "message": "scan", "status": "OPEN"}}))
	mux.HandleFunc("/api/alerts/7", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDashboard_StartPopulatesEveryWidget(t *testing.T) {
	srv := fakeServer(t)
	cfg := config.Default()
	cfg.Server = srv.URL
	cfg.AuditLog = filepath.Join(t.TempDir(), "audit.jsonl")

	d, err := New(Options{Config: cfg, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var mu sync.Mutex
	changed := map[string]bool{}
	d.OnChange(func(id string) {
		mu.Lock()
		changed[id] = true
		mu.Unlock()
	})

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}

	waitFor(t, "every widget", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changed) == len(d.Widgets())
	})

	if st, ok := d.Stats.Values(); !ok || st.Total != 10 {
		t.Errorf("unexpected stats %+v", st)
	}
	if got := d.TopTalkers.Chart().Spec().Labels; len(got) != 1 || got[0] != widgets.TalkerLabel("10.0.0.1", "8.8.8.8") {
		t.Errorf("unexpected talker labels %v", got)
	}
	if len(d.Graph.Elements().Nodes) != 2 {
		t.Errorf("expected 2 graph nodes, got %+v", d.Graph.Elements())
	}
	if !d.Monitor.State().Live {
		t.Error("expected connectivity to be live")
	}
	if testutil.ToFloat64(d.Metrics.Live) != 1 {
		t.Error("connectivity gauge not mirrored")
	}
	if _, ok := d.Hub.WidgetStates()[widgets.IDAlerts]; !ok {
		t.Error("alerts widget not tracked by the mirror")
	}

	res, err := d.Alerts.Ack(context.Background(), 7)
	if err != nil || res.Phase != widgets.PhasePrimary {
		t.Fatalf("Ack: %+v %v", res, err)
	}

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	f, err := os.Open(cfg.AuditLog)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatal("audit log is empty")
	}
	var entry audit.Entry
	if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry.AlertID != 7 || entry.To != "ACK" || entry.Phase != string(widgets.PhasePrimary) {
		t.Errorf("unexpected audit entry %+v", entry)
	}
}

func TestDashboard_MirrorServesState(t *testing.T) {
	srv := fakeServer(t)
	cfg := config.Default()
	cfg.Server = srv.URL
	cfg.Mirror.Listen = "127.0.0.1:0"

	d, err := New(Options{Config: cfg, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	addr := d.MirrorAddr()
	if addr == "" {
		t.Fatal("mirror not listening")
	}
	waitFor(t, "stats poll", func() bool {
		_, ok := d.Stats.Values()
		return ok
	})

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var sb strings.Builder
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	if !strings.Contains(sb.String(), "fwdash_polls_total") {
		t.Errorf("poll counter missing from /metrics:\n%s", sb.String())
	}
}

func TestDashboard_RefreshBeforeStart(t *testing.T) {
	d, err := New(Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	if d.Refresh(widgets.IDStats) {
		t.Error("Refresh before Start should report false")
	}
	if d.Interval(widgets.IDAlerts) != 0 || d.Interval(widgets.IDStats) == 0 {
		t.Error("unexpected default intervals")
	}
	if err := d.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server = "not a url"
	if _, err := New(Options{Config: cfg, Logger: zerolog.Nop()}); err == nil {
		t.Fatal("expected error")
	}
}
