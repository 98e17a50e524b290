package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// TestMode asks the eligible-posts endpoint for its test corpus.
	TestMode bool `json:"test_mode" yaml:"test_mode" mapstructure:"test_mode"`

	// MaxResults is the page size (10-500).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Pages is the maximum number of pages to request (at least 1).
	Pages int `json:"pages" yaml:"pages" mapstructure:"pages"`

	// HydrateMetrics enables the secondary metrics lookup when the search
	// response carried no engagement counts.
	HydrateMetrics bool `json:"hydrate_metrics" yaml:"hydrate_metrics" mapstructure:"hydrate_metrics"`

	// ComputeReach sets Post.ReachScore after hydration.
	ComputeReach bool `json:"compute_reach" yaml:"compute_reach" mapstructure:"compute_reach"`

	// PageDelay is the pause between search pages (default 1s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" mapstructure:"page_delay"`

	// LookupDelay is the pause between metrics lookup batches (default 1s).
	LookupDelay time.Duration `json:"lookup_delay" yaml:"lookup_delay" mapstructure:"lookup_delay"`

	// DefaultRetryAfter is used when a 429 response has no retry-after header (default 60s).
	DefaultRetryAfter time.Duration `json:"default_retry_after" yaml:"default_retry_after" mapstructure:"default_retry_after"`

	// MaxRetryAfter is the longest advised wait the lookup will honour;
	// longer waits abandon hydration (default 5m).
	MaxRetryAfter time.Duration `json:"max_retry_after" yaml:"max_retry_after" mapstructure:"max_retry_after"`

	// LookupAttempts caps attempts per lookup batch (default 3).
	LookupAttempts int `json:"lookup_attempts" yaml:"lookup_attempts" mapstructure:"lookup_attempts"`

	// BackoffBase is the exponential backoff base after a transport error (default 1s).
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base" mapstructure:"backoff_base"`
}

// Page-size and page-count bounds accepted by the fetch stage.
const (
	MinResultsPerPage = 10
	MaxResultsPerPage = 500
	MaxPages          = 10
)

// AIConfig holds shared settings for stages that call the scoring capability.
type AIConfig struct {
	// Model is the model identifier (e.g. "claude-3-5-sonnet-20240620").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the capability API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens caps each response.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// MaxRetries is the number of retry attempts for failed calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// AnalysisConfig holds settings shared by the filter and score stages.
type AnalysisConfig struct {
	// BatchSize is the number of posts per capability call (at most and
	// by default 12).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// MaxTextChars is the truncation limit for post text in prompts (default 320).
	MaxTextChars int `json:"max_text_chars" yaml:"max_text_chars" mapstructure:"max_text_chars"`

	// BatchDelay is the pause between capability calls.
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay" mapstructure:"batch_delay"`

	// StrictRejections stops the heuristic from keeping posts the capability
	// explicitly rejected; only posts without a verdict are rescued. The zero
	// value rescues both.
	StrictRejections bool `json:"strict_rejections" yaml:"strict_rejections" mapstructure:"strict_rejections"`
}

// Default analysis limits.
const (
	DefaultBatchSize    = 12
	DefaultMaxTextChars = 320
)

// Normalized returns c with out-of-range values replaced by defaults.
func (c AnalysisConfig) Normalized() AnalysisConfig {
	if c.BatchSize <= 0 || c.BatchSize > DefaultBatchSize {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxTextChars <= 0 {
		c.MaxTextChars = DefaultMaxTextChars
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	}
	return c
}

// EngagementBasis selects the count the ranker turns into an engagement score.
type EngagementBasis string

const (
	BasisRetweets  EngagementBasis = "retweets"
	BasisComposite EngagementBasis = "composite"
)

// Weights is the convex combination used for the final score.
type Weights struct {
	Importance   float64 `json:"importance" yaml:"importance" mapstructure:"importance"`
	Checkability float64 `json:"checkability" yaml:"checkability" mapstructure:"checkability"`
	Engagement   float64 `json:"engagement" yaml:"engagement" mapstructure:"engagement"`
}

// DefaultWeights is the ranking policy: 0.5 importance, 0.3 checkability, 0.2 engagement.
var DefaultWeights = Weights{Importance: 0.5, Checkability: 0.3, Engagement: 0.2}

// RankConfig holds settings for the rank stage.
type RankConfig struct {
	Weights Weights         `json:"weights" yaml:"weights" mapstructure:"weights"`
	Basis   EngagementBasis `json:"engagement_basis" yaml:"engagement_basis" mapstructure:"engagement_basis"`

	// MinRetweets is the engagement threshold used by the optional filters.
	MinRetweets int `json:"min_retweets" yaml:"min_retweets" mapstructure:"min_retweets"`

	// ThresholdBeforeScoring shrinks the analysis set before filtering.
	ThresholdBeforeScoring bool `json:"threshold_before_scoring" yaml:"threshold_before_scoring" mapstructure:"threshold_before_scoring"`

	// ThresholdAfterRanking shrinks the ranked output.
	ThresholdAfterRanking bool `json:"threshold_after_ranking" yaml:"threshold_after_ranking" mapstructure:"threshold_after_ranking"`
}

// ExportConfig holds settings for the export stage.
type ExportConfig struct {
	// Dir is the directory exports are written to.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Name is the destination file name; its extension selects the format
	// unless Format is set.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Format overrides the extension: csv, xlsx, json, or yaml.
	Format string `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	AI       AIConfig       `json:"ai" yaml:"ai" mapstructure:"ai"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Rank     RankConfig     `json:"rank" yaml:"rank" mapstructure:"rank"`
	Export   ExportConfig   `json:"export" yaml:"export" mapstructure:"export"`
}
