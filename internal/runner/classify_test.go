package runner

import (
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/engine"
)

func TestNewPolicyDefaultsContinueStatusesToRetry(t *testing.T) {
	p := NewPolicy(nil, 3, false, 0, false, 0)
	if !p.ContinueStatuses[engine.StatusRetry] {
		t.Fatal("expected default continue_statuses to include Retry")
	}
	if p.ContinueStatuses[engine.StatusFail] {
		t.Fatal("Fail should not be a default continue status")
	}
}

func TestShouldRetryRespectsMaxRetries(t *testing.T) {
	p := NewPolicy(nil, 2, false, 0, false, 0)
	if !p.ShouldRetry(engine.StatusRetry, 0) {
		t.Error("attempt 0 < max_retries 2 should retry")
	}
	if !p.ShouldRetry(engine.StatusRetry, 1) {
		t.Error("attempt 1 < max_retries 2 should retry")
	}
	if p.ShouldRetry(engine.StatusRetry, 2) {
		t.Error("attempt 2 >= max_retries 2 should not retry")
	}
}

func TestShouldRetryIgnoresStatusesOutsideContinueSet(t *testing.T) {
	p := NewPolicy([]string{"Retry"}, 5, false, 0, false, 0)
	if p.ShouldRetry(engine.StatusFail, 0) {
		t.Error("Fail is not in continue_statuses, should not retry")
	}
	if p.ShouldRetry(engine.StatusBan, 0) {
		t.Error("Ban is not in continue_statuses, should not retry")
	}
}

func TestNewPolicyHonorsCustomContinueStatuses(t *testing.T) {
	p := NewPolicy([]string{"Retry", "Ban"}, 1, false, 0, false, 0)
	if !p.ContinueStatuses[engine.StatusBan] {
		t.Fatal("expected custom continue_statuses to include Ban")
	}
}
