// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Sleep blocks for d or until ctx is done. Tests replace it to avoid real
// waits.
var Sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy describes how Do reacts to each response class.
//
//   - 200: returned to the caller.
//   - 429: wait for the advised retry-after (or DefaultRetryAfter) and retry.
//     A wait longer than MaxRetryAfter returns a *RateLimitedError with
//     TooLong set instead of blocking.
//   - any other status: returned as a *StatusError, never retried.
//   - transport error: retried with BaseDelay * 2^n backoff when
//     RetryTransport is set, returned immediately otherwise.
//
// MaxAttempts counts every failed attempt (429 or transport). Zero means no
// limit.
type Policy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	DefaultRetryAfter time.Duration
	MaxRetryAfter     time.Duration
	RetryTransport    bool

	// OnResponse sees every response before it is classified.
	OnResponse func(*http.Response)
}

// RateLimitedError is returned when a 429 could not be waited out.
type RateLimitedError struct {
	RetryAfter time.Duration
	// TooLong reports that the advised wait exceeded the policy's cap.
	TooLong bool
}

func (e *RateLimitedError) Error() string {
	if e.TooLong {
		return fmt.Sprintf("rate limited: advised wait %s is too long", e.RetryAfter)
	}
	return fmt.Sprintf("rate limited: try again in %s", e.RetryAfter)
}

// StatusError is a non-200, non-429 response.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Detail)
}

// IsRateLimited reports whether err is a *RateLimitedError.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// Do executes requests built by newReq under policy p. On success the caller
// owns the response body. newReq is called once per attempt so request
// bodies are never reused.
func Do(ctx context.Context, client *http.Client, newReq func(context.Context) (*http.Request, error), p Policy) (*http.Response, error) {
	failures := 0
	for {
		req, err := newReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failures++
			if !p.RetryTransport || exhausted(p, failures) {
				return nil, err
			}
			if err := Sleep(ctx, backoff(p.BaseDelay, failures)); err != nil {
				return nil, err
			}
			continue
		}

		if p.OnResponse != nil {
			p.OnResponse(resp)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := RetryAfter(resp.Header, p.DefaultRetryAfter)
			drain(resp)
			if p.MaxRetryAfter > 0 && wait > p.MaxRetryAfter {
				return nil, &RateLimitedError{RetryAfter: wait, TooLong: true}
			}
			failures++
			if exhausted(p, failures) {
				return nil, &RateLimitedError{RetryAfter: wait}
			}
			if err := Sleep(ctx, wait); err != nil {
				return nil, err
			}

		default:
			detail := readDetail(resp)
			return nil, &StatusError{StatusCode: resp.StatusCode, Detail: detail}
		}
	}
}

func exhausted(p Policy, failures int) bool {
	return p.MaxAttempts > 0 && failures >= p.MaxAttempts
}

// backoff returns base * 2^n.
func backoff(base time.Duration, n int) time.Duration {
	if base <= 0 {
		return 0
	}
	return base << n
}

// RetryAfter parses the retry-after header as delay-seconds or an HTTP date.
// It returns fallback when the header is absent or unparseable.
func RetryAfter(h http.Header, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d.Round(time.Second)
		}
		return 0
	}
	return fallback
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// readDetail returns the "detail" field of an API problem document, or the
// first 200 bytes of the body.
func readDetail(resp *http.Response) string {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var problem struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &problem) == nil && problem.Detail != "" {
		return problem.Detail
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
