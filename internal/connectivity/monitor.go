// Package connectivity tracks whether the backend is reachable, as seen by
// the most recent poll of any widget.
package connectivity

import (
	"sync"
	"time"
)

// State is the process-wide connectivity indicator.
type State struct {
	Live          bool      `json:"live"`
	LastRefreshAt time.Time `json:"last_refresh_at"`
}

// Observer is called after every report with the new state.
type Observer func(State)

// Monitor holds the last-known reachability. One failure flips it offline,
// one success flips it back; there is no history.
type Monitor struct {
	mu        sync.RWMutex
	state     State
	now       func() time.Time
	observers []Observer
}

// NewMonitor creates a monitor that starts offline.
func NewMonitor() *Monitor {
	return &Monitor{now: time.Now}
}

// Report records the outcome of one poll.
func (m *Monitor) Report(ok bool) {
	m.mu.Lock()
	m.state.Live = ok
	if ok {
		m.state.LastRefreshAt = m.now()
	}
	st := m.state
	observers := m.observers
	m.mu.Unlock()

	for _, fn := range observers {
		fn(st)
	}
}

// State returns a copy of the current state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// OnChange registers an observer.
func (m *Monitor) OnChange(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}
