package dashboard

import (
	"sync"
	"time"
)

const timeSeriesMinutes = 60

// Stats accumulates poll statistics.
type Stats struct {
	mu sync.RWMutex

	total   uint64
	failed  uint64
	tookSum float64

	widgetCounts  map[string]uint64
	failureCounts map[string]uint64

	// per-minute buckets for the last 60 minutes
	timeBuckets [timeSeriesMinutes]timeBucket
	now         func() time.Time
}

type timeBucket struct {
	minute time.Time
	count  uint64
	failed uint64
}

// NewStats creates a new stats accumulator.
func NewStats() *Stats {
	return &Stats{
		widgetCounts:  make(map[string]uint64),
		failureCounts: make(map[string]uint64),
		now:           time.Now,
	}
}

// Record ingests a single poll event.
func (s *Stats) Record(event *PollEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.tookSum += event.TookMs
	s.widgetCounts[event.Widget]++
	if !event.OK {
		s.failed++
		s.failureCounts[event.Widget]++
	}

	minute := event.Timestamp.UTC().Truncate(time.Minute)
	idx := minute.Minute() % timeSeriesMinutes
	if !s.timeBuckets[idx].minute.Equal(minute) {
		s.timeBuckets[idx] = timeBucket{minute: minute}
	}
	s.timeBuckets[idx].count++
	if !event.OK {
		s.timeBuckets[idx].failed++
	}
}

// Snapshot returns a point-in-time copy of the stats.
func (s *Stats) Snapshot() *StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &StatsSnapshot{
		TotalPolls:    s.total,
		FailedPolls:   s.failed,
		WidgetCounts:  copyMap(s.widgetCounts),
		FailureCounts: copyMap(s.failureCounts),
	}
	if s.total > 0 {
		snap.AvgTookMs = s.tookSum / float64(s.total)
	}

	now := s.now().UTC().Truncate(time.Minute)
	cutoff := now.Add(-timeSeriesMinutes * time.Minute)
	for i := 0; i < timeSeriesMinutes; i++ {
		t := cutoff.Add(time.Duration(i+1) * time.Minute)
		b := s.timeBuckets[t.Minute()%timeSeriesMinutes]
		point := TimeSeriesPoint{Timestamp: t}
		if b.minute.Equal(t) {
			point.Count = b.count
			point.Failed = b.failed
		}
		snap.TimeSeries = append(snap.TimeSeries, point)
	}
	return snap
}

func copyMap(m map[string]uint64) map[string]uint64 {
	c := make(map[string]uint64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
