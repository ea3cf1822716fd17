package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// recordedSleeps swaps the policy's sleep for one that records durations
// instead of waiting.
func recordedSleeps(p *RetryPolicy) *[]time.Duration {
	var slept []time.Duration
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return &slept
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	p := DefaultRetryPolicy()
	slept := recordedSleeps(&p)

	calls := 0
	out, err := p.Do(context.Background(), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || out != "ok" {
		t.Fatalf("Do = %q, %v", out, err)
	}
	if calls != 1 || len(*slept) != 0 {
		t.Errorf("calls = %d, sleeps = %v", calls, *slept)
	}
}

func TestDoBackoffSchedule(t *testing.T) {
	p := DefaultRetryPolicy()
	slept := recordedSleeps(&p)

	calls := 0
	_, err := p.Do(context.Background(), func() (string, error) {
		calls++
		return "", &HTTPError{StatusCode: 500, Body: "boom"}
	})
	if err == nil {
		t.Fatal("expected final error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	// Base 1s doubled per attempt, clamped to a 2s floor: both pauses hit
	// the floor (1s -> 2s, 2s stays).
	want := []time.Duration{2 * time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, (*slept)[i], want[i])
		}
	}
}

func TestDoRateLimitCooldown(t *testing.T) {
	p := DefaultRetryPolicy()
	slept := recordedSleeps(&p)

	calls := 0
	out, err := p.Do(context.Background(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", &HTTPError{StatusCode: http.StatusTooManyRequests, Body: "slow down"}
		}
		return "recovered", nil
	})
	if err != nil || out != "recovered" {
		t.Fatalf("Do = %q, %v", out, err)
	}
	// 5s cooldown for the 429, then the regular 2s backoff.
	if len(*slept) != 2 || (*slept)[0] != 5*time.Second || (*slept)[1] != 2*time.Second {
		t.Errorf("sleeps = %v, want [5s 2s]", *slept)
	}
}

func TestDoRetryAfterHeaderExtendsCooldown(t *testing.T) {
	p := DefaultRetryPolicy()
	slept := recordedSleeps(&p)

	calls := 0
	p.Do(context.Background(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", &HTTPError{StatusCode: 429, RetryAfter: 12 * time.Second}
		}
		return "ok", nil
	})
	if len(*slept) == 0 || (*slept)[0] != 12*time.Second {
		t.Errorf("sleeps = %v, want Retry-After to win over the fixed cooldown", *slept)
	}
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	p := DefaultRetryPolicy()
	slept := recordedSleeps(&p)

	calls := 0
	_, err := p.Do(context.Background(), func() (string, error) {
		calls++
		return "", &HTTPError{StatusCode: 401, Body: "bad key"}
	})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 401 {
		t.Fatalf("expected the 401 back, got %v", err)
	}
	if calls != 1 || len(*slept) != 0 {
		t.Errorf("calls = %d, sleeps = %v; client errors must not retry", calls, *slept)
	}
}

func TestDoContextCanceledDuringSleep(t *testing.T) {
	p := DefaultRetryPolicy()
	ctx, cancel := context.WithCancel(context.Background())
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := p.Do(ctx, func() (string, error) {
		return "", &HTTPError{StatusCode: 500}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefaultRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"429", &HTTPError{StatusCode: 429}, true},
		{"500", &HTTPError{StatusCode: 500}, true},
		{"503", &HTTPError{StatusCode: 503}, true},
		{"400", &HTTPError{StatusCode: 400}, false},
		{"401", &HTTPError{StatusCode: 401}, false},
		{"404", &HTTPError{StatusCode: 404}, false},
		{"envelope decode failure", &DecodeError{Err: errors.New("bad json")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"plain error", errors.New("logic bug"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryable(tt.err); got != tt.want {
				t.Errorf("DefaultRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffClamping(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, MinDelay: 2 * time.Second, MaxDelay: 10 * time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},  // 1s clamped up
		{2, 2 * time.Second},  // 2s at the floor
		{3, 4 * time.Second},  // 4s in range
		{4, 8 * time.Second},  // 8s in range
		{5, 10 * time.Second}, // 16s clamped down
	}
	for _, tt := range tests {
		if got := p.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
