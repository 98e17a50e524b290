// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Request("eligible", OutcomeOK)
	m.Request("eligible", OutcomeOK)
	m.Request("lookup", OutcomeRateLimited)
	m.Fetched(100)
	m.Hydrated(40)
	m.Remaining(3)
	m.Capability("filter", OutcomeUnparsed)
	m.Decision(DecisionHeuristic)
	m.Scored(true)
	m.Scored(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("eligible", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("lookup", OutcomeRateLimited)))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.PostsFetched))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.PostsHydrated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RateLimitLeft))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CapabilityCalls.WithLabelValues("filter", OutcomeUnparsed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilterDecisions.WithLabelValues(DecisionHeuristic)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PostsScored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnscoredPosts))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Request("eligible", OutcomeOK)
		m.Fetched(1)
		m.Hydrated(1)
		m.Remaining(1)
		m.Capability("score", OutcomeOK)
		m.Decision(DecisionDropped)
		m.Scored(false)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Fetched(7)

	path := filepath.Join(t.TempDir(), "claim_ranker.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "claim_ranker_posts_fetched_total 7")
}
