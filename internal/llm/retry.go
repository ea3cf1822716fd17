package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"
)

// RetryPolicy wraps a single remote call with bounded retries and
// exponential backoff. It is a plain value so tests can exercise the
// schedule without a network.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // doubled per attempt before clamping
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Cooldown429 time.Duration // extra fixed pause after an HTTP 429

	// Retryable decides whether an error is worth another attempt.
	// Nil means DefaultRetryable.
	Retryable func(error) bool

	// Sleep is overridable for tests. Nil means a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy mirrors the extraction pipeline's reference schedule:
// three attempts, exponential backoff clamped to [2s, 10s], a 5s cooldown
// on rate-limit responses.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MinDelay:    2 * time.Second,
		MaxDelay:    10 * time.Second,
		Cooldown429: 5 * time.Second,
	}
}

// DefaultRetryable retries transient transport failures: network errors,
// timeouts, transport-layer JSON decode failures, and rate-limit or
// server-side HTTP statuses. Client errors other than 429 are final.
func DefaultRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// url.Error wraps transport failures; unwrap chains above catch the
	// typed ones, everything else from the socket layer lands here.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Do runs fn under the policy. The last error is returned unwrapped so
// callers can still inspect it with errors.As.
func (p RetryPolicy) Do(ctx context.Context, fn func() (string, error)) (string, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == attempts || !retryable(err) {
			break
		}

		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
			cooldown := p.Cooldown429
			if httpErr.RetryAfter > cooldown {
				cooldown = httpErr.RetryAfter
			}
			if cooldown > 0 {
				if serr := sleep(ctx, cooldown); serr != nil {
					return "", serr
				}
			}
		}

		if serr := sleep(ctx, p.backoff(attempt)); serr != nil {
			return "", serr
		}
	}
	return "", lastErr
}

// backoff computes the delay after the given 1-based attempt:
// BaseDelay * 2^(attempt-1), clamped to [MinDelay, MaxDelay].
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	if p.MinDelay > 0 && d < p.MinDelay {
		d = p.MinDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
