// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"math"

	"github.com/pdiddy/claim-ranker/pkg/types"
)

// ReachScore maps the post's composite engagement onto a log-dampened
// 0-10 scale, rounded to one decimal.
func ReachScore(p *types.Post) float64 {
	raw := p.CompositeEngagement()
	if raw <= 0 {
		return 0
	}
	score := math.Min(10, math.Log1p(raw)/math.Log(1000)*10)
	return math.Round(score*10) / 10
}
