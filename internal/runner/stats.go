package runner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/engine"
)

// Stats aggregates one job's live counters atomically (spec.md §4.F:
// "attempted, success_count, fail_count, retry_count, ban_count,
// custom_count, error_count, cpm, elapsed_ms, threads_active").
type Stats struct {
	startedAt time.Time

	attempted     int64
	successCount  int64
	failCount     int64
	retryCount    int64
	banCount      int64
	customCount   int64
	errorCount    int64
	threadsActive int64

	mu   sync.Mutex
	hits []time.Time // hit timestamps within the last 60s, for cpm
}

// NewStats returns a Stats with its elapsed-time clock started now.
func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

// IncAttempted counts one record pulled from the data pool.
func (s *Stats) IncAttempted() { atomic.AddInt64(&s.attempted, 1) }

// Record tallies one classification and, for Success/Custom, appends a
// timestamp to the cpm window (Snapshot prunes entries older than 60s).
func (s *Stats) Record(status engine.Status) {
	switch status {
	case engine.StatusSuccess:
		atomic.AddInt64(&s.successCount, 1)
		s.markHit()
	case engine.StatusCustom:
		atomic.AddInt64(&s.customCount, 1)
		s.markHit()
	case engine.StatusFail:
		atomic.AddInt64(&s.failCount, 1)
	case engine.StatusBan:
		atomic.AddInt64(&s.banCount, 1)
	case engine.StatusRetry:
		atomic.AddInt64(&s.retryCount, 1)
	case engine.StatusError:
		atomic.AddInt64(&s.errorCount, 1)
	}
}

func (s *Stats) markHit() {
	s.mu.Lock()
	s.hits = append(s.hits, time.Now())
	s.mu.Unlock()
}

// AddThreadsActive adjusts the live worker-goroutine count by delta.
func (s *Stats) AddThreadsActive(delta int64) { atomic.AddInt64(&s.threadsActive, delta) }

// Snapshot is an immutable read of Stats at one instant.
type Snapshot struct {
	Attempted     int64
	SuccessCount  int64
	FailCount     int64
	RetryCount    int64
	BanCount      int64
	CustomCount   int64
	ErrorCount    int64
	CPM           int64
	ElapsedMs     int64
	ThreadsActive int64
}

// Snapshot returns the current counter values, with CPM computed over a
// trailing 60-second window.
func (s *Stats) Snapshot() Snapshot {
	cutoff := time.Now().Add(-60 * time.Second)
	s.mu.Lock()
	i := 0
	for i < len(s.hits) && s.hits[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		s.hits = s.hits[i:]
	}
	cpm := int64(len(s.hits))
	s.mu.Unlock()

	return Snapshot{
		Attempted:     atomic.LoadInt64(&s.attempted),
		SuccessCount:  atomic.LoadInt64(&s.successCount),
		FailCount:     atomic.LoadInt64(&s.failCount),
		RetryCount:    atomic.LoadInt64(&s.retryCount),
		BanCount:      atomic.LoadInt64(&s.banCount),
		CustomCount:   atomic.LoadInt64(&s.customCount),
		ErrorCount:    atomic.LoadInt64(&s.errorCount),
		CPM:           cpm,
		ElapsedMs:     time.Since(s.startedAt).Milliseconds(),
		ThreadsActive: atomic.LoadInt64(&s.threadsActive),
	}
}
