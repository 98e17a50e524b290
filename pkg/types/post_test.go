// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermalink(t *testing.T) {
	assert.Equal(t, "https://x.com/i/status/1789", (&Post{ID: "1789"}).Permalink())
	assert.Equal(t, "", (&Post{}).Permalink())
}

func TestScoreAccessors(t *testing.T) {
	p := &Post{}
	assert.Equal(t, 0, p.Importance())
	assert.Equal(t, 0, p.Checkability())
	assert.Equal(t, 0.0, p.Final())

	p.ImportanceScore = Int(8)
	p.CheckableScore = Int(3)
	p.FinalScore = Float(4.9)
	assert.Equal(t, 8, p.Importance())
	assert.Equal(t, 3, p.Checkability())
	assert.Equal(t, 4.9, p.Final())
}

func TestCompositeEngagement(t *testing.T) {
	p := &Post{
		PublicMetrics:        PublicMetrics{LikeCount: 10, RetweetCount: 5, ReplyCount: 2, QuoteCount: 1},
		AuthorFollowersCount: Int(1000),
	}
	assert.InDelta(t, 10+10+3+2+2, p.CompositeEngagement(), 1e-9)
	assert.Zero(t, (&Post{}).CompositeEngagement())
}

func TestAnalysisConfigNormalized(t *testing.T) {
	c := AnalysisConfig{BatchSize: 40, MaxTextChars: -1, BatchDelay: -5}.Normalized()
	assert.Equal(t, DefaultBatchSize, c.BatchSize)
	assert.Equal(t, DefaultMaxTextChars, c.MaxTextChars)
	assert.Zero(t, c.BatchDelay)

	c = AnalysisConfig{BatchSize: 5, MaxTextChars: 100}.Normalized()
	assert.Equal(t, 5, c.BatchSize)
	assert.Equal(t, 100, c.MaxTextChars)
}
