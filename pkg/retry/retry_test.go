package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("Do() calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testConfig(), func() error {
		calls++
		return errors.New("transient")
	})

	if err == nil {
		t.Fatal("Do() error = nil, want error")
	}
	if calls != 3 {
		t.Errorf("Do() calls = %d, want 3", calls)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	cause := errors.New("bad request")
	err := Do(context.Background(), testConfig(), func() error {
		calls++
		return Permanent(cause)
	})

	if !errors.Is(err, cause) {
		t.Errorf("Do() error = %v, want %v", err, cause)
	}
	if calls != 1 {
		t.Errorf("Do() calls = %d, want 1", calls)
	}
}

func TestDo_ObserverSeesIncreasingDelays(t *testing.T) {
	var attempts []int
	var delays []time.Duration

	cfg := testConfig()
	cfg.OnRetry = func(attempt int, delay time.Duration) {
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	}

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}

	if len(attempts) != 2 {
		t.Fatalf("observer invoked %d times, want 2", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("observer attempts = %v, want [1 2]", attempts)
	}
	if delays[1] <= delays[0] {
		t.Errorf("delays not strictly increasing: %v", delays)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, testConfig(), func() error {
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}
