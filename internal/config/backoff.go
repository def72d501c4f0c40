package config

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

const (
	baseBackoff   = 500 * time.Millisecond
	maxBackoff    = 30 * time.Second
	backoffFactor = 2.0
	jitterFactor  = 0.5
)

// DoWithBackoff performs the request, retrying transient failures (transport
// errors and 5xx responses) with exponential backoff and jitter. Non-5xx
// responses are returned as-is for the caller to judge. The context bounds
// the whole retry loop.
func DoWithBackoff(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	var lastErr error
	delay := baseBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(rand.Float64() * float64(delay) * jitterFactor)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay + jitter):
			}
			delay = time.Duration(float64(delay) * backoffFactor)
			if delay > maxBackoff {
				delay = maxBackoff
			}
		}

		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned status: %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}
