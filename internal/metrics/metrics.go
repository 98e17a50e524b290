// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts remote calls and pipeline outcomes for one run.
// Each run gets its own registry; the CLI can write it to a node-exporter
// textfile. All methods are safe on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
	OutcomeUnparsed    = "unparsed"
)

// Filter decisions.
const (
	DecisionRemote    = "remote"
	DecisionHeuristic = "heuristic"
	DecisionDropped   = "dropped"
)

// Metrics holds the collectors for one pipeline run.
type Metrics struct {
	Registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	PostsFetched    prometheus.Counter
	PostsHydrated   prometheus.Counter
	RateLimitLeft   prometheus.Gauge
	CapabilityCalls *prometheus.CounterVec
	FilterDecisions *prometheus.CounterVec
	PostsScored     prometheus.Counter
	UnscoredPosts   prometheus.Counter
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claim_ranker_api_requests_total",
			Help: "X API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		PostsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claim_ranker_posts_fetched_total",
			Help: "Posts returned by the eligible-posts search.",
		}),
		PostsHydrated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claim_ranker_posts_hydrated_total",
			Help: "Posts whose engagement metrics were retrieved.",
		}),
		RateLimitLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "claim_ranker_rate_limit_remaining",
			Help: "Last observed x-rate-limit-remaining value.",
		}),
		CapabilityCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claim_ranker_capability_calls_total",
			Help: "Scoring capability calls by stage and outcome.",
		}, []string{"stage", "outcome"}),
		FilterDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claim_ranker_filter_decisions_total",
			Help: "Filter outcomes per post.",
		}, []string{"decision"}),
		PostsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claim_ranker_posts_scored_total",
			Help: "Posts that passed through the scorer.",
		}),
		UnscoredPosts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claim_ranker_posts_unscored_total",
			Help: "Scored posts left with a zero importance or checkability score.",
		}),
	}
	m.Registry.MustRegister(
		m.Requests, m.PostsFetched, m.PostsHydrated, m.RateLimitLeft,
		m.CapabilityCalls, m.FilterDecisions, m.PostsScored, m.UnscoredPosts,
	)
	return m
}

// Request counts one X API request.
func (m *Metrics) Request(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, outcome).Inc()
}

// Fetched adds n fetched posts.
func (m *Metrics) Fetched(n int) {
	if m == nil {
		return
	}
	m.PostsFetched.Add(float64(n))
}

// Hydrated adds n hydrated posts.
func (m *Metrics) Hydrated(n int) {
	if m == nil {
		return
	}
	m.PostsHydrated.Add(float64(n))
}

// Remaining records the last seen remaining-quota header.
func (m *Metrics) Remaining(n int) {
	if m == nil {
		return
	}
	m.RateLimitLeft.Set(float64(n))
}

// Capability counts one capability call.
func (m *Metrics) Capability(stage, outcome string) {
	if m == nil {
		return
	}
	m.CapabilityCalls.WithLabelValues(stage, outcome).Inc()
}

// Decision counts one filter decision.
func (m *Metrics) Decision(decision string) {
	if m == nil {
		return
	}
	m.FilterDecisions.WithLabelValues(decision).Inc()
}

// Scored counts one scored post; unscored marks a zero score.
func (m *Metrics) Scored(unscored bool) {
	if m == nil {
		return
	}
	m.PostsScored.Inc()
	if unscored {
		m.UnscoredPosts.Inc()
	}
}

// WriteTextfile writes the registry in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
