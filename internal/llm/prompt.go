// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pdiddy/claim-ranker/pkg/types"
)

// Ellipsis marks truncated post text.
const Ellipsis = "…"

// jsonOnly prefixes every prompt.
const jsonOnly = "Return ONLY valid minified JSON. No markdown, no code fences, no commentary.\n\n"

// Item is one post as presented to the capability.
type Item struct {
	ID   string
	Text string
}

// postsBlock renders items as a YAML-like list. Text is escaped so it can
// sit inside double quotes.
const postsBlock = `{{range $i, $p := .}}{{if $i}}
{{end}}- id: {{$p.ID}}
  text: "{{escape $p.Text}}"{{end}}`

var funcs = template.FuncMap{"escape": escapeQuotes}

var filterPromptTmpl = template.Must(template.New("filter").Funcs(funcs).Parse(`You are a PolitiFact intake editor. Decide for EACH post if it likely contains a fact-checkable claim per PolitiFact criteria:

1) Verifiable fact (not pure opinion/hyperbole)
2) Seems misleading or likely wrong
3) Significant (not trivial gotcha)
4) Likely to spread
5) A typical person would wonder: “Is that true?”

Be moderately lenient: if a post includes numbers, dates, measurable outcomes, or a specific policy/person assertion, lean **true**.

Return ONLY minified JSON array. One object per post with keys:
"id", "is_fact_checkable" (boolean), "reason" (short explanation citing criteria numbers).

Posts:
` + postsBlock))

var scorePromptTmpl = template.Must(template.New("score").Funcs(funcs).Parse(`Score EACH post on two axes:
1) "checkable_score" (1-10): how definitively we can verify with evidence.
2) "importance_score" (1-10): public interest or potential harm if false.

Return ONLY minified JSON array. Object per post:
{"id": "...", "checkable_score": integer, "importance_score": integer, "scoring_reason": "brief"}

Posts:
` + postsBlock))

// FilterPrompt renders the fact-checkability prompt for one batch.
func FilterPrompt(items []Item) (string, error) {
	return render(filterPromptTmpl, items)
}

// ScorePrompt renders the importance/checkability scoring prompt for one batch.
func ScorePrompt(items []Item) (string, error) {
	return render(scorePromptTmpl, items)
}

func render(t *template.Template, items []Item) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(jsonOnly)
	if err := t.Execute(&buf, items); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Items converts posts to prompt items, trimming and truncating text to
// maxChars characters.
func Items(posts []*types.Post, maxChars int) []Item {
	items := make([]Item, len(posts))
	for i, p := range posts {
		items[i] = Item{ID: p.ID, Text: Truncate(p.Text, maxChars)}
	}
	return items
}

// Truncate trims s and cuts it to n characters, appending Ellipsis when
// anything was removed.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + Ellipsis
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// Chunk splits xs into consecutive slices of at most n elements.
func Chunk[T any](xs []T, n int) [][]T {
	if n <= 0 {
		n = len(xs)
	}
	var out [][]T
	for i := 0; i < len(xs); i += n {
		out = append(out, xs[i:min(i+n, len(xs))])
	}
	return out
}
