package audit

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Entry is one operator action against the backend.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Server    string    `json:"server,omitempty"`
	Action    string    `json:"action"` // "ack" or "close"
	AlertID   int64     `json:"alert_id"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Phase     string    `json:"phase"` // "primary", "legacy" or "failed"
	Error     string    `json:"error,omitempty"`
}

// Logger writes JSON-line audit entries.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
	enc    *json.Encoder
}

// NewLogger creates a new audit logger writing to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		writer: w,
		enc:    json.NewEncoder(w),
	}
}

// NewFileLogger creates a logger that appends to the file at path.
func NewFileLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return NewLogger(f), nil
}

// Log writes a single audit entry as a JSON line.
func (l *Logger) Log(entry Entry) error {
	if l == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Close closes the underlying writer if it is closable.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	if c, ok := l.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// NopLogger returns a logger that discards all entries.
func NopLogger() *Logger {
	return NewLogger(io.Discard)
}
