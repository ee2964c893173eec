package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryTransport retries idempotent-safe failures: timeouts, 408, 429 and 5xx.
// Request bodies are replayed through GetBody.
type retryTransport struct {
	base        http.RoundTripper
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleeper     func(time.Duration)
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	attempts := t.maxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	current := req
	for attempt := 1; ; attempt++ {
		if attempt > 1 && req.Body != nil && req.Body != http.NoBody {
			if req.GetBody == nil {
				return nil, errors.New("llm retry: request body cannot be replayed")
			}
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("llm retry: replay body: %w", err)
			}
			current = req.Clone(ctx)
			current.Body = body
		}

		resp, err := t.base.RoundTrip(current)
		delay, retry := t.retryDelay(ctx, resp, err, attempt, attempts)
		if !retry {
			return resp, err
		}
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		if err := t.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (t *retryTransport) retryDelay(ctx context.Context, resp *http.Response, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, false
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return t.backoffDelay(attempt), true
		}
		return 0, false
	}

	switch {
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		if retryAfter, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok && retryAfter > 0 {
			return t.capDelay(retryAfter), true
		}
		return t.backoffDelay(attempt), true
	default:
		return 0, false
	}
}

// backoffDelay doubles from baseDelay: attempt 1 -> base, 2 -> base*2, ...
func (t *retryTransport) backoffDelay(attempt int) time.Duration {
	if t.baseDelay <= 0 {
		return 0
	}
	if attempt <= 0 {
		attempt = 1
	}
	delay := t.baseDelay
	for i := 1; i < attempt; i++ {
		if t.maxDelay > 0 && delay > t.maxDelay/2 {
			delay = t.maxDelay
			break
		}
		delay *= 2
	}
	return t.capDelay(delay)
}

func (t *retryTransport) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if t.maxDelay > 0 && delay > t.maxDelay {
		return t.maxDelay
	}
	return delay
}

func (t *retryTransport) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if t.sleeper != nil {
		t.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
