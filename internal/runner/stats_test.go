package runner

import (
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/engine"
)

func TestStatsRecordTalliesEachStatus(t *testing.T) {
	s := NewStats()
	s.IncAttempted()
	s.IncAttempted()
	s.Record(engine.StatusSuccess)
	s.Record(engine.StatusFail)
	s.Record(engine.StatusBan)
	s.Record(engine.StatusRetry)
	s.Record(engine.StatusCustom)
	s.Record(engine.StatusError)

	snap := s.Snapshot()
	if snap.Attempted != 2 {
		t.Errorf("Attempted = %d, want 2", snap.Attempted)
	}
	if snap.SuccessCount != 1 || snap.FailCount != 1 || snap.BanCount != 1 ||
		snap.RetryCount != 1 || snap.CustomCount != 1 || snap.ErrorCount != 1 {
		t.Errorf("counters mismatch: %+v", snap)
	}
	if snap.CPM != 2 {
		t.Errorf("CPM = %d, want 2 (one Success + one Custom)", snap.CPM)
	}
}

func TestStatsThreadsActiveTracksAddDelta(t *testing.T) {
	s := NewStats()
	s.AddThreadsActive(5)
	s.AddThreadsActive(-2)
	if got := s.Snapshot().ThreadsActive; got != 3 {
		t.Fatalf("ThreadsActive = %d, want 3", got)
	}
}

func TestStatsElapsedMsIsNonNegative(t *testing.T) {
	s := NewStats()
	if s.Snapshot().ElapsedMs < 0 {
		t.Fatal("ElapsedMs should never be negative")
	}
}
