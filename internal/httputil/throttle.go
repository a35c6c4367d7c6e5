// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for the Dropbox client.
package httputil

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ThrottledClient paces outgoing requests with a token-bucket limiter.
// It never retries: each call to Do results in at most one request.
type ThrottledClient struct {
	next    Doer
	limiter *rate.Limiter
}

// NewThrottledClient wraps next so that at most rps requests per second are
// sent, allowing bursts of up to burst requests. When rps is zero or
// negative, next is returned unchanged.
func NewThrottledClient(next Doer, rps float64, burst int) Doer {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &ThrottledClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Do waits for the limiter and then sends req. If the request context is
// cancelled while waiting, the context error is returned and nothing is
// sent.
func (c *ThrottledClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.next.Do(req)
}

// RetryAfter parses the Retry-After header of resp as either a number of
// seconds or an HTTP date. It returns zero when the header is absent or
// unparsable. The value is informational only; callers do not retry.
func RetryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
