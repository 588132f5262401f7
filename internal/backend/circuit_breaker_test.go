package backend

import (
	"testing"
	"time"
)

func TestCircuitBreaker_tripsOnConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, 1, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	if got := cb.State(); got != BreakerClosed {
		t.Fatalf("State after 2 failures = %v, want closed", got)
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("Allow while closed: error = %v", err)
	}

	cb.RecordFailure()
	if got := cb.State(); got != BreakerOpen {
		t.Fatalf("State after 3 failures = %v, want open", got)
	}
	if err := cb.Allow(); err == nil {
		t.Error("Allow while open: error = nil, want rejection")
	}
}

func TestCircuitBreaker_successResetsFailureStreak(t *testing.T) {
	cb := NewCircuitBreaker(3, 1, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	// Interrupted streaks never reach the threshold.
	if got := cb.State(); got != BreakerClosed {
		t.Errorf("State = %v, want closed", got)
	}
}

func TestCircuitBreaker_halfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, time.Millisecond)

	cb.RecordFailure()
	if got := cb.State(); got != BreakerOpen {
		t.Fatalf("State = %v, want open", got)
	}

	time.Sleep(5 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow after timeout: error = %v, want probe allowed", err)
	}
	if got := cb.State(); got != BreakerHalfOpen {
		t.Errorf("State = %v, want half-open", got)
	}
}

func TestCircuitBreaker_closesAfterSuccessThreshold(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, time.Millisecond)

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	cb.Allow()

	cb.RecordSuccess()
	if got := cb.State(); got != BreakerHalfOpen {
		t.Fatalf("State after 1 success = %v, want half-open", got)
	}
	cb.RecordSuccess()
	if got := cb.State(); got != BreakerClosed {
		t.Errorf("State after 2 successes = %v, want closed", got)
	}
}

func TestCircuitBreaker_halfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, time.Millisecond)

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	cb.Allow()

	cb.RecordFailure()
	if got := cb.State(); got != BreakerOpen {
		t.Errorf("State after half-open failure = %v, want open", got)
	}
	if err := cb.Allow(); err == nil {
		t.Error("Allow immediately after reopen: error = nil, want rejection")
	}
}

func TestCircuitBreaker_defaultsForZeroConfig(t *testing.T) {
	cb := NewCircuitBreaker(0, 0, 0)

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	if got := cb.State(); got != BreakerClosed {
		t.Fatalf("State after 4 failures = %v, want closed with default threshold 5", got)
	}
	cb.RecordFailure()
	if got := cb.State(); got != BreakerOpen {
		t.Errorf("State after 5 failures = %v, want open", got)
	}
}
