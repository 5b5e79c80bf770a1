package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"nhooyr.io/websocket"
)

//go:embed static/dashboard.html
var staticFS embed.FS

// Handler returns an http.Handler that serves the mirror routes under
// /_fwdash/ and, when gatherer is not nil, Prometheus metrics on /metrics.
func Handler(hub *Hub, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/_fwdash/", func(w http.ResponseWriter, r *http.Request) {
		data, err := staticFS.ReadFile("static/dashboard.html")
		if err != nil {
			http.Error(w, "dashboard not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	})

	mux.HandleFunc("/_fwdash/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.CloseNow()

		hub.Register(conn)
		defer hub.Unregister(conn)

		// the mirror is read-only: client messages are discarded
		ctx := conn.CloseRead(context.Background())
		<-ctx.Done()
	})

	mux.HandleFunc("/_fwdash/api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.WidgetStates())
	})

	mux.HandleFunc("/_fwdash/api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.StatsSnapshot())
	})

	mux.HandleFunc("/_fwdash/api/polls", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		writeJSON(w, hub.Events().Last(n))
	})

	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Run starts the periodic stats broadcast in background.
func Run(ctx context.Context, hub *Hub) {
	go hub.StartStatsBroadcast(ctx, 5*time.Second)
}
