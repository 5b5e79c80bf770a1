package dashboard

import "sync"

const defaultBufferSize = 500

// RingBuffer is a thread-safe circular buffer of poll events.
type RingBuffer struct {
	mu    sync.RWMutex
	items []*PollEvent
	head  int
	count int
	cap   int
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &RingBuffer{
		items: make([]*PollEvent, capacity),
		cap:   capacity,
	}
}

// Add inserts an event, overwriting the oldest when full.
func (rb *RingBuffer) Add(event *PollEvent) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == rb.cap {
		rb.items[rb.head] = event
		rb.head = (rb.head + 1) % rb.cap
		return
	}
	rb.items[(rb.head+rb.count)%rb.cap] = event
	rb.count++
}

// All returns all events oldest first.
func (rb *RingBuffer) All() []*PollEvent {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	result := make([]*PollEvent, rb.count)
	for i := 0; i < rb.count; i++ {
		result[i] = rb.items[(rb.head+i)%rb.cap]
	}
	return result
}

// Last returns up to n of the newest events, oldest first.
func (rb *RingBuffer) Last(n int) []*PollEvent {
	all := rb.All()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Len returns the number of events in the buffer.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}
