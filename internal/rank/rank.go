// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders scored posts best-first by a weighted final score.
package rank

import (
	"fmt"
	"math"
	"slices"

	"github.com/pdiddy/claim-ranker/pkg/types"
)

// MaxScore is the top of the engagement scale.
const MaxScore = 10.0

// saturation is the count at which the engagement score reaches MaxScore.
const saturation = 1000.0

// EngagementScore maps a non-negative count onto 0-10 with log damping:
// 0 for c <= 0, else min(10, ln(1+c)/ln(1000)*10).
func EngagementScore(c float64) float64 {
	if c <= 0 || math.IsNaN(c) {
		return 0
	}
	return math.Min(MaxScore, math.Log1p(c)/math.Log(saturation)*MaxScore)
}

// Count returns the engagement count the basis selects.
func Count(p *types.Post, basis types.EngagementBasis) float64 {
	if basis == types.BasisComposite {
		return p.CompositeEngagement()
	}
	return float64(p.RetweetCount)
}

// FinalScore combines a post's scores with w. Missing scores count as 0.
func FinalScore(p *types.Post, engagement float64, w types.Weights) float64 {
	return w.Importance*float64(p.Importance()) +
		w.Checkability*float64(p.Checkability()) +
		w.Engagement*engagement
}

// Validate checks that the basis is known and the weights are usable.
func Validate(cfg types.RankConfig) error {
	switch cfg.Basis {
	case "", types.BasisRetweets, types.BasisComposite:
	default:
		return fmt.Errorf("unknown engagement basis %q (want %q or %q)", cfg.Basis, types.BasisRetweets, types.BasisComposite)
	}
	w := cfg.Weights
	if w.Importance < 0 || w.Checkability < 0 || w.Engagement < 0 {
		return fmt.Errorf("ranking weights must be non-negative, got %+v", w)
	}
	if cfg.MinRetweets < 0 {
		return fmt.Errorf("minimum retweets must be non-negative, got %d", cfg.MinRetweets)
	}
	return nil
}

// Rank sets EngagementScore and FinalScore on every post and returns a new
// slice sorted by final score, highest first. Ties keep input order. All-zero
// weights fall back to types.DefaultWeights.
func Rank(posts []*types.Post, cfg types.RankConfig) []*types.Post {
	w := cfg.Weights
	if w == (types.Weights{}) {
		w = types.DefaultWeights
	}

	ranked := slices.Clone(posts)
	for _, p := range ranked {
		e := EngagementScore(Count(p, cfg.Basis))
		p.EngagementScore = types.Float(e)
		p.FinalScore = types.Float(FinalScore(p, e, w))
	}
	slices.SortStableFunc(ranked, func(a, b *types.Post) int {
		switch fa, fb := a.Final(), b.Final(); {
		case fa > fb:
			return -1
		case fa < fb:
			return 1
		default:
			return 0
		}
	})
	return ranked
}

// ApplyThreshold returns the posts with at least minRetweets retweets, in
// order. A non-positive minimum returns posts unchanged.
func ApplyThreshold(posts []*types.Post, minRetweets int) []*types.Post {
	if minRetweets <= 0 {
		return posts
	}
	out := make([]*types.Post, 0, len(posts))
	for _, p := range posts {
		if p.RetweetCount >= minRetweets {
			out = append(out, p)
		}
	}
	return out
}
