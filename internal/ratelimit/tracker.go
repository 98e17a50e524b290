// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit records the X API's rate-limit headers so callers can
// decide whether another request is worth issuing. A Tracker never blocks.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// LowWater is the remaining-request count at or below which ShouldSkip
// advises against further optional requests.
const LowWater = 5

// Header names set by the X API on every response.
const (
	HeaderRemaining = "x-rate-limit-remaining"
	HeaderReset     = "x-rate-limit-reset"
)

// State is a snapshot of the most recent rate-limit headers. Remaining and
// Reset are nil until a response carried them.
type State struct {
	Remaining   *int
	Reset       *time.Time
	LastChecked time.Time
}

// Tracker holds the rate-limit state for one fetch session.
type Tracker struct {
	mu    sync.Mutex
	state State
	now   func() time.Time
}

// NewTracker returns a Tracker with unknown state.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Record updates the state from response headers. Absent or malformed
// headers leave the corresponding field unchanged.
func (t *Tracker) Record(h http.Header) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if v := h.Get(HeaderRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.state.Remaining = &n
			t.state.LastChecked = t.now()
		}
	}
	if v := h.Get(HeaderReset); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			reset := time.Unix(ts, 0)
			t.state.Reset = &reset
		}
	}
	return t.snapshot()
}

// ShouldSkip reports whether the remaining quota is at or below LowWater
// and the window has not reset yet. The reason describes the wait.
func (t *Tracker) ShouldSkip() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	if s.Remaining == nil || *s.Remaining > LowWater || s.Reset == nil {
		return false, ""
	}
	now := t.now()
	if !now.Before(*s.Reset) {
		return false, ""
	}
	wait := s.Reset.Sub(now).Round(time.Second)
	return true, fmt.Sprintf("Rate limited. Resets in %.0fs", wait.Seconds())
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Tracker) snapshot() State {
	s := State{LastChecked: t.state.LastChecked}
	if t.state.Remaining != nil {
		n := *t.state.Remaining
		s.Remaining = &n
	}
	if t.state.Reset != nil {
		r := *t.state.Reset
		s.Reset = &r
	}
	return s
}
