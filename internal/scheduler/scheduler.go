// Package scheduler runs one independent repeating refresh task per widget.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is a single refresh invocation. ctx is cancelled when the task is
// cancelled or the scheduler stops.
type Task func(ctx context.Context)

// CancelFunc stops a scheduled task. Calling it more than once is harmless.
type CancelFunc func()

type task struct {
	id       string
	interval time.Duration
	fn       Task
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// Scheduler owns the repeating tasks. Tasks never coordinate: each tick
// starts a new invocation even when the previous one is still in flight.
type Scheduler struct {
	logger zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	stop    context.CancelFunc
	tasks   map[string]*task
	stopped bool

	inflight sync.WaitGroup
}

// New creates a scheduler whose tasks inherit ctx.
func New(ctx context.Context, logger zerolog.Logger) *Scheduler {
	ctx, stop := context.WithCancel(ctx)
	return &Scheduler{
		logger: logger.With().Str("component", "scheduler").Logger(),
		ctx:    ctx,
		stop:   stop,
		tasks:  make(map[string]*task),
	}
}

// Schedule registers fn under id. The first invocation fires immediately,
// then once per interval. An interval of zero registers a manual task that
// only runs through Trigger. Scheduling an existing id replaces it.
func (s *Scheduler) Schedule(id string, interval time.Duration, fn Task) CancelFunc {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return func() {}
	}
	if old, ok := s.tasks[id]; ok {
		old.cancel()
		delete(s.tasks, id)
	}
	ctx, cancel := context.WithCancel(s.ctx)
	t := &task{
		id:       id,
		interval: interval,
		fn:       fn,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.tasks[id] = t
	s.mu.Unlock()

	s.logger.Debug().Str("task", id).Dur("interval", interval).Msg("scheduled")

	if interval > 0 {
		s.fire(t)
		go s.loop(t)
	} else {
		close(t.done)
	}

	return func() { s.cancelTask(t) }
}

// Cancel stops the task registered under id.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	t, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.cancelTask(t)
	return true
}

// Trigger fires one out-of-band invocation of the task registered under id.
func (s *Scheduler) Trigger(id string) bool {
	s.mu.Lock()
	t, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.fire(t)
	return true
}

// IDs returns the registered task ids, sorted.
func (s *Scheduler) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stop cancels every task and waits for loops and in-flight invocations.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	tasks := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	s.stop()
	for _, t := range tasks {
		<-t.done
	}
	s.inflight.Wait()
}

func (s *Scheduler) cancelTask(t *task) {
	s.mu.Lock()
	if cur, ok := s.tasks[t.id]; ok && cur == t {
		delete(s.tasks, t.id)
	}
	s.mu.Unlock()
	t.cancel()
}

func (s *Scheduler) loop(t *task) {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			s.logger.Debug().Str("task", t.id).Msg("cancelled")
			return
		case <-ticker.C:
			s.fire(t)
		}
	}
}

func (s *Scheduler) fire(t *task) {
	s.mu.Lock()
	if s.stopped || t.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		t.fn(t.ctx)
	}()
}
