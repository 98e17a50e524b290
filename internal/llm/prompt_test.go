// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/claim-ranker/pkg/types"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"trims first", "   hello   ", 5, "hello"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdefgh", 5, "abcde" + Ellipsis},
		{"runes not bytes", "ééééé", 3, "ééé" + Ellipsis},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}

func TestItemsTruncatesTo320(t *testing.T) {
	long := strings.Repeat("x", 500)
	items := Items([]*types.Post{{ID: "1", Text: long}, {ID: "2", Text: " short "}}, types.DefaultMaxTextChars)
	require.Len(t, items, 2)
	assert.Equal(t, 321, utf8.RuneCountInString(items[0].Text))
	assert.True(t, strings.HasSuffix(items[0].Text, Ellipsis))
	assert.Equal(t, "short", items[1].Text)
}

func TestChunk(t *testing.T) {
	xs := make([]int, 25)
	for i := range xs {
		xs[i] = i
	}
	chunks := Chunk(xs, types.DefaultBatchSize)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 12)
	assert.Len(t, chunks[1], 12)
	assert.Equal(t, []int{24}, chunks[2])

	assert.Empty(t, Chunk([]int{}, 12))
}

func TestFilterPrompt(t *testing.T) {
	prompt, err := FilterPrompt([]Item{
		{ID: "1", Text: `He said "taxes doubled"`},
		{ID: "2", Text: `back\slash`},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "Return ONLY valid minified JSON."))
	assert.Contains(t, prompt, "PolitiFact intake editor")
	assert.Contains(t, prompt, `"is_fact_checkable" (boolean)`)
	assert.Contains(t, prompt, "Posts:\n- id: 1\n  text: \"He said \\\"taxes doubled\\\"\"\n- id: 2\n  text: \"back\\\\slash\"")
	assert.False(t, strings.HasSuffix(prompt, "\n"))
}

func TestScorePrompt(t *testing.T) {
	prompt, err := ScorePrompt([]Item{{ID: "9", Text: "Budget cut by $2 billion"}})
	require.NoError(t, err)
	assert.Contains(t, prompt, `"checkable_score" (1-10)`)
	assert.Contains(t, prompt, `{"id": "...", "checkable_score": integer, "importance_score": integer, "scoring_reason": "brief"}`)
	assert.True(t, strings.HasSuffix(prompt, "- id: 9\n  text: \"Budget cut by $2 billion\""))
}
