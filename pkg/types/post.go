// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the claim-ranker pipeline.
//
// A Post is created by the fetch stage and enriched in place by the filter,
// score, and rank stages. Each stage owns a disjoint set of optional fields;
// a field a stage has not set is nil. No stage clears a field set by an
// earlier one.
package types

// PermalinkBase is the prefix for a post's canonical URL.
const PermalinkBase = "https://x.com/i/status/"

// PublicMetrics holds the engagement counts reported for a post. Unknown
// counts are zero.
type PublicMetrics struct {
	RetweetCount int `json:"retweet_count" yaml:"retweet_count"`
	LikeCount    int `json:"like_count" yaml:"like_count"`
	ReplyCount   int `json:"reply_count" yaml:"reply_count"`
	QuoteCount   int `json:"quote_count" yaml:"quote_count"`
}

// Post is a social-media post flagged as eligible for fact-check review.
type Post struct {
	// ID is the post identifier; it is the stable key for dedup and linking.
	ID string `json:"id" yaml:"id"`

	// Text is the post body. It may be empty.
	Text string `json:"text" yaml:"text"`

	AuthorID  string `json:"author_id,omitempty" yaml:"author_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`

	PublicMetrics `yaml:",inline"`

	// AuthorFollowersCount is set when the lookup endpoint returned the author.
	AuthorFollowersCount *int `json:"author_followers_count,omitempty" yaml:"author_followers_count,omitempty"`

	// MetricsHydrated reports whether PublicMetrics came from the API.
	// When false, MetricsReason explains why.
	MetricsHydrated bool   `json:"metrics_hydrated" yaml:"metrics_hydrated"`
	MetricsReason   string `json:"metrics_reason,omitempty" yaml:"metrics_reason,omitempty"`

	// ReachScore is the 0-10 dampened composite engagement, set by fetch
	// when reach computation is enabled.
	ReachScore *float64 `json:"reach_score,omitempty" yaml:"reach_score,omitempty"`

	// Filter stage.
	FactCheckReason *string `json:"fact_check_reason,omitempty" yaml:"fact_check_reason,omitempty"`

	// Score stage. A score of 0 means the capability gave no usable score.
	CheckableScore  *int    `json:"checkable_score,omitempty" yaml:"checkable_score,omitempty"`
	ImportanceScore *int    `json:"importance_score,omitempty" yaml:"importance_score,omitempty"`
	ScoringReason   *string `json:"scoring_reason,omitempty" yaml:"scoring_reason,omitempty"`

	// Optional reviewer aids carried through to exports.
	FactCheckQuestions string `json:"fact_check_questions,omitempty" yaml:"fact_check_questions,omitempty"`
	SearchKeywords     string `json:"search_keywords,omitempty" yaml:"search_keywords,omitempty"`
	AidsReason         string `json:"aids_reason,omitempty" yaml:"aids_reason,omitempty"`

	// Rank stage.
	EngagementScore *float64 `json:"engagement_score,omitempty" yaml:"engagement_score,omitempty"`
	FinalScore      *float64 `json:"final_score,omitempty" yaml:"final_score,omitempty"`
}

// Permalink returns the canonical URL of the post, or "" if the post has no ID.
func (p *Post) Permalink() string {
	if p.ID == "" {
		return ""
	}
	return PermalinkBase + p.ID
}

// Importance returns the importance score, or 0 if the post was not scored.
func (p *Post) Importance() int { return derefInt(p.ImportanceScore) }

// Checkability returns the checkable score, or 0 if the post was not scored.
func (p *Post) Checkability() int { return derefInt(p.CheckableScore) }

// Final returns the final ranking score, or 0 if the post was not ranked.
func (p *Post) Final() float64 {
	if p.FinalScore == nil {
		return 0
	}
	return *p.FinalScore
}

// CompositeEngagement weighs the raw counts into one number:
// likes + 2*retweets + 1.5*replies + 2*quotes + 0.002*followers.
func (p *Post) CompositeEngagement() float64 {
	return float64(p.LikeCount) +
		2*float64(p.RetweetCount) +
		1.5*float64(p.ReplyCount) +
		2*float64(p.QuoteCount) +
		0.002*float64(derefInt(p.AuthorFollowersCount))
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
