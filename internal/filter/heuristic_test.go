// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksClaimy(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"unemployment example", unemployment, true},
		{"empty", "", false},
		{"too short even with number", "Taxes up 50%!", false},
		{"short after trim", "   The governor said it twice   ", false},
		{"29 chars", "The governor said it, twice!!", false},
		{"30 chars with verb", "The governor said it, twice!!!", true},
		{"currency", "Groceries at the corner shop cost $5 more now", true},
		{"year", "Remember what happened back in 1776 everyone", true},
		{"percent word", "Rents went up per cent by a lot around here", true},
		{"claim verb", "My neighbour says the bridge is closing soon ok", true},
		{"won't", "They won't tell anyone about the bridge closure", true},
		{"keyword substring", "Everybody should go and VOTE early this weekend", true},
		{"keyword inside word", "Heading to the border crossing at dawn today", true},
		{"nothing", "What a lovely afternoon for a walk in the park", false},
		{"verb needs word boundary", "The Saidmann family hosted a lovely dinner party", false},
		{"non-ASCII digit", "Prices rose by ٣ points over the last month here", true},
		{"verb next to non-ASCII letter", "Thé café owner saidé nothing much at all today", false},
		{"verb after non-ASCII punctuation", "Everyone in town «said» the bridge is closing soon", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksClaimy(tt.text))
		})
	}
}

func TestKeywordsAreFixed(t *testing.T) {
	assert.Equal(t, []string{
		"tax", "vote", "election", "redistrict", "crime", "unemployment", "inflation",
		"immigration", "vaccine", "border", "budget", "billion", "percent", "gun", "abortion",
	}, Keywords)
}
