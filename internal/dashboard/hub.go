// Package dashboard serves a read-only local mirror of the client's render
// state: poll history, poll statistics and the current widget snapshots,
// over HTTP and WebSocket.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/coal/fwdash/internal/connectivity"
)

// Snapshotter is a widget whose render state can be mirrored.
type Snapshotter interface {
	ID() string
	Snapshot() any
}

// Hub manages WebSocket clients, poll history and stats.
type Hub struct {
	events  *RingBuffer
	stats   *Stats
	monitor *connectivity.Monitor
	logger  zerolog.Logger
	seq     atomic.Uint64

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	widgets map[string]Snapshotter
}

// NewHub creates a new hub. monitor may be nil.
func NewHub(monitor *connectivity.Monitor, logger zerolog.Logger) *Hub {
	return &Hub{
		events:  NewRingBuffer(defaultBufferSize),
		stats:   NewStats(),
		monitor: monitor,
		logger:  logger.With().Str("component", "mirror").Logger(),
		clients: make(map[*websocket.Conn]struct{}),
		widgets: make(map[string]Snapshotter),
	}
}

// Track adds widgets whose state is mirrored.
func (h *Hub) Track(ws ...Snapshotter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range ws {
		h.widgets[w.ID()] = w
	}
}

// OnPoll records a refresh outcome and broadcasts it.
func (h *Hub) OnPoll(widget string, ok bool, took time.Duration, err error) {
	event := &PollEvent{
		ID:        fmt.Sprintf("poll-%d", h.seq.Add(1)),
		Timestamp: time.Now().UTC(),
		Widget:    widget,
		OK:        ok,
		TookMs:    float64(took.Microseconds()) / 1000,
	}
	if err != nil {
		event.Error = err.Error()
	}

	h.events.Add(event)
	h.stats.Record(event)
	h.broadcast(WSMessage{Type: "poll", Payload: event})
}

// OnChange broadcasts the new state of a tracked widget.
func (h *Hub) OnChange(widget string) {
	h.mu.RLock()
	w, ok := h.widgets[widget]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.broadcast(WSMessage{Type: "widget", Payload: WidgetUpdate{Widget: widget, State: w.Snapshot()}})
}

// WidgetStates returns the current snapshot of every tracked widget.
func (h *Hub) WidgetStates() map[string]any {
	h.mu.RLock()
	ws := make([]Snapshotter, 0, len(h.widgets))
	for _, w := range h.widgets {
		ws = append(ws, w)
	}
	h.mu.RUnlock()

	sort.Slice(ws, func(i, j int) bool { return ws[i].ID() < ws[j].ID() })
	out := make(map[string]any, len(ws))
	for _, w := range ws {
		out[w.ID()] = w.Snapshot()
	}
	return out
}

// Register adds a WebSocket client and sends it the initial state.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	initial := WSMessage{
		Type: "initial_state",
		Payload: InitialState{
			Events:  h.events.All(),
			Stats:   h.StatsSnapshot(),
			Widgets: h.WidgetStates(),
		},
	}

	data, err := json.Marshal(initial)
	if err != nil {
		h.logger.Error().Err(err).Msg("encoding initial state")
		return
	}
	conn.Write(context.Background(), websocket.MessageText, data)
}

// Unregister removes a WebSocket client.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("encoding message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.Unregister(c)
		}
	}
}

// StartStatsBroadcast pushes stats snapshots to all clients every interval.
func (h *Hub) StartStatsBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(WSMessage{Type: "stats_update", Payload: h.StatsSnapshot()})
		}
	}
}

// Events returns the poll history.
func (h *Hub) Events() *RingBuffer {
	return h.events
}

// StatsSnapshot returns the poll stats with the current connectivity state.
func (h *Hub) StatsSnapshot() *StatsSnapshot {
	snap := h.stats.Snapshot()
	if h.monitor != nil {
		snap.Connectivity = h.monitor.State()
	}
	return snap
}
