package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreaker_StaysClosedOnSuccess(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", TripAfter: 2})
	for range 10 {
		if err := b.Do(func() error { return nil }); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	if b.Tripped() {
		t.Error("breaker tripped without failures")
	}
}

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", TripAfter: 3, Cooldown: time.Minute})

	for range 3 {
		if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("Do = %v; want errBoom", err)
		}
	}
	if !b.Tripped() {
		t.Fatal("breaker should be open after three failures")
	}

	calls := 0
	err := b.Do(func() error { calls++; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Do while open = %v; want ErrOpen", err)
	}
	if calls != 0 {
		t.Error("fn should not run while the breaker is open")
	}
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", TripAfter: 2})
	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return nil })
	_ = b.Do(func() error { return errBoom })
	if b.Tripped() {
		t.Error("a success in between should reset the failure run")
	}
}

func TestBreaker_ProbeClosesAfterCooldown(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", TripAfter: 1, Cooldown: 30 * time.Millisecond})
	_ = b.Do(func() error { return errBoom })
	if !b.Tripped() {
		t.Fatal("breaker should be open")
	}

	time.Sleep(50 * time.Millisecond)

	// The probe succeeds; the breaker closes again.
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if err := b.Do(func() error { return nil }); err != nil {
		t.Errorf("Do after close: %v", err)
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", TripAfter: 1, Cooldown: 30 * time.Millisecond})
	_ = b.Do(func() error { return errBoom })

	time.Sleep(50 * time.Millisecond)

	if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("probe = %v; want errBoom", err)
	}
	if !b.Tripped() {
		t.Error("failed probe should re-open the breaker")
	}
}

func TestRetry_SucceedsOnLaterAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d; want 3", calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	t.Parallel()

	err := Retry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Retry = %v; want errBoom", err)
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := Retry(ctx, 100, 10*time.Millisecond, func(context.Context) error {
		calls++
		return errBoom
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Retry = %v; want context.Canceled", err)
	}
	if calls > 10 {
		t.Errorf("calls = %d; cancellation should stop the retry loop", calls)
	}
}
