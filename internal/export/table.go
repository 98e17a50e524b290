// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"math"
	"slices"

	"github.com/pdiddy/claim-ranker/pkg/types"
)

// Column names.
const (
	ColID                 = "id"
	ColText               = "text"
	ColPostLink           = "post_link"
	ColFactCheckReason    = "fact_check_reason"
	ColImportanceScore    = "importance_score"
	ColCheckableScore     = "checkable_score"
	ColScoringReason      = "scoring_reason"
	ColFactCheckQuestions = "fact_check_questions"
	ColSearchKeywords     = "search_keywords"
	ColAidsReason         = "aids_reason"
)

// Preferred is the fixed column prefix of every export.
var Preferred = []string{
	ColID, ColText, ColPostLink,
	ColFactCheckReason,
	ColImportanceScore, ColCheckableScore, ColScoringReason,
	ColFactCheckQuestions, ColSearchKeywords, ColAidsReason,
}

// extra is a column outside the preferred prefix. value returns false when
// the post does not carry the field.
type extra struct {
	name  string
	value func(p *types.Post) (any, bool)
}

// extras lists the remaining fields in the order a post presents them.
var extras = []extra{
	{"author_id", func(p *types.Post) (any, bool) { return p.AuthorID, p.AuthorID != "" }},
	{"created_at", func(p *types.Post) (any, bool) { return p.CreatedAt, p.CreatedAt != "" }},
	{"retweet_count", func(p *types.Post) (any, bool) { return p.RetweetCount, true }},
	{"like_count", func(p *types.Post) (any, bool) { return p.LikeCount, true }},
	{"reply_count", func(p *types.Post) (any, bool) { return p.ReplyCount, true }},
	{"quote_count", func(p *types.Post) (any, bool) { return p.QuoteCount, true }},
	{"author_followers_count", func(p *types.Post) (any, bool) { return intOrNil(p.AuthorFollowersCount) }},
	{"metrics_hydrated", func(p *types.Post) (any, bool) { return p.MetricsHydrated, true }},
	{"metrics_reason", func(p *types.Post) (any, bool) { return p.MetricsReason, p.MetricsReason != "" }},
	{"reach_score", func(p *types.Post) (any, bool) { return floatOrNil(p.ReachScore) }},
	{"engagement_score", func(p *types.Post) (any, bool) { return floatOrNil(p.EngagementScore) }},
	{"final_score", func(p *types.Post) (any, bool) { return floatOrNil(p.FinalScore) }},
}

// Table is the tabular form of a post collection. Cells hold string, int,
// float64 (rounded to two decimals), bool, or nil for an unset field.
type Table struct {
	Columns []string
	Rows    [][]any
}

// BuildTable lays posts out as rows: the Preferred prefix, then every other
// field that any post carries, in first-seen order.
func BuildTable(posts []*types.Post) Table {
	columns := slices.Clone(Preferred)
	index := make(map[string]extra, len(extras))
	for _, p := range posts {
		for _, e := range extras {
			if _, seen := index[e.name]; seen {
				continue
			}
			if _, ok := e.value(p); ok {
				index[e.name] = e
				columns = append(columns, e.name)
			}
		}
	}

	rows := make([][]any, len(posts))
	for i, p := range posts {
		row := []any{
			p.ID,
			p.Text,
			p.Permalink(),
			stringOrNil(p.FactCheckReason),
			first(intOrNil(p.ImportanceScore)),
			first(intOrNil(p.CheckableScore)),
			stringOrNil(p.ScoringReason),
			p.FactCheckQuestions,
			p.SearchKeywords,
			p.AidsReason,
		}
		for _, name := range columns[len(Preferred):] {
			v, ok := index[name].value(p)
			if !ok {
				v = nil
			}
			row = append(row, v)
		}
		rows[i] = row
	}
	return Table{Columns: columns, Rows: rows}
}

func first(v any, _ bool) any { return v }

func intOrNil(v *int) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func floatOrNil(v *float64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return math.Round(*v*100) / 100, true
}

func stringOrNil(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
