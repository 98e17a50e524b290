// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves posts eligible for fact-check notes from the X API
// and hydrates their engagement metrics.
//
// Requests are issued one at a time with fixed pauses between pages and
// lookup batches. Rate-limit headers from every response feed a per-fetcher
// ratelimit.Tracker, which gates the optional metrics lookup.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/claim-ranker/internal/httputil"
	"github.com/pdiddy/claim-ranker/internal/logging"
	"github.com/pdiddy/claim-ranker/internal/metrics"
	"github.com/pdiddy/claim-ranker/internal/ratelimit"
	"github.com/pdiddy/claim-ranker/internal/secrets"
	"github.com/pdiddy/claim-ranker/pkg/types"
)

// Endpoints. Declared as vars so tests can substitute an httptest server.
var (
	eligibleURL = "https://api.x.com/2/notes/search/posts_eligible_for_notes"
	lookupURL   = "https://api.x.com/2/tweets"
)

// Endpoint labels used in logs, metrics, and reasons.
const (
	endpointEligible = "eligible"
	endpointLookup   = "/2/tweets"
)

// Defaults applied to zero-valued FetchConfig fields. Zero page and lookup
// delays are honoured as "no pause".
const (
	defaultTimeout        = 30 * time.Second
	defaultRetryAfter     = 60 * time.Second
	defaultMaxRetryAfter  = 5 * time.Minute
	defaultLookupAttempts = 3
	defaultBackoffBase    = 1 * time.Second
	lookupBatchSize       = 100
)

// Request holds the parameters of one fetch.
type Request struct {
	TestMode       bool
	MaxResults     int
	Pages          int
	HydrateMetrics bool
}

// RequestFromConfig builds a Request from the fetch settings.
func RequestFromConfig(cfg types.FetchConfig) Request {
	return Request{
		TestMode:       cfg.TestMode,
		MaxResults:     cfg.MaxResults,
		Pages:          cfg.Pages,
		HydrateMetrics: cfg.HydrateMetrics,
	}
}

// Validate checks the page size and page count bounds.
func (r Request) Validate() error {
	if r.MaxResults < types.MinResultsPerPage || r.MaxResults > types.MaxResultsPerPage {
		return fmt.Errorf("max results per page must be between %d and %d, got %d",
			types.MinResultsPerPage, types.MaxResultsPerPage, r.MaxResults)
	}
	if r.Pages < 1 {
		return fmt.Errorf("page count must be at least 1, got %d", r.Pages)
	}
	return nil
}

// Result is the outcome of a fetch. Posts are in server order across pages.
type Result struct {
	Posts []*types.Post

	// Pages is the number of non-empty pages received.
	Pages int

	// Hydrated reports whether any post carries API-sourced metrics.
	Hydrated bool

	// Reason explains missing metrics; empty when hydration succeeded.
	Reason string

	// BatchesProcessed counts successful lookup batches.
	BatchesProcessed int

	// Aborted holds the error that ended pagination early, if any.
	Aborted error

	// Diagnostics lists every degraded step in order.
	Diagnostics []string
}

// Fetcher talks to the X API on behalf of one set of credentials. It owns
// its rate-limit tracker; Fetchers do not share state.
type Fetcher struct {
	client   *http.Client
	cfg      types.FetchConfig
	tracker  *ratelimit.Tracker
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	progress io.Writer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the OAuth-signed client (tests use an httptest client).
func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithLogger sets the diagnostic logger.
func WithLogger(l logrus.FieldLogger) Option { return func(f *Fetcher) { f.log = l } }

// WithMetrics sets the run metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(f *Fetcher) { f.metrics = m } }

// WithProgress sets the writer for one-line progress messages.
func WithProgress(w io.Writer) Option { return func(f *Fetcher) { f.progress = w } }

// WithTracker supplies an existing tracker, for callers that fetch in
// several sessions against the same quota.
func WithTracker(t *ratelimit.Tracker) Option { return func(f *Fetcher) { f.tracker = t } }

// New validates the credentials and returns a Fetcher whose client signs
// requests with OAuth 1.0a. It returns a *secrets.CredentialError if any
// credential is blank.
func New(creds secrets.XCredentials, cfg types.FetchConfig, opts ...Option) (*Fetcher, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	f := &Fetcher{
		cfg:      withDefaults(cfg),
		tracker:  ratelimit.NewTracker(),
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = logging.OrDiscard(f.log)

	if f.client == nil {
		config := oauth1.NewConfig(creds.APIKey, creds.APIKeySecret)
		token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
		f.client = config.Client(oauth1.NoContext, token)
		f.client.Timeout = f.cfg.Timeout
	}
	return f, nil
}

func withDefaults(cfg types.FetchConfig) types.FetchConfig {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.DefaultRetryAfter <= 0 {
		cfg.DefaultRetryAfter = defaultRetryAfter
	}
	if cfg.MaxRetryAfter <= 0 {
		cfg.MaxRetryAfter = defaultMaxRetryAfter
	}
	if cfg.LookupAttempts <= 0 {
		cfg.LookupAttempts = defaultLookupAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	return cfg
}

// Tracker exposes the fetcher's rate-limit state.
func (f *Fetcher) Tracker() *ratelimit.Tracker { return f.tracker }

// FetchEligiblePosts pages through the eligible-posts search and, when
// requested and needed, hydrates engagement metrics. It returns every post
// seen even if hydration fails or pagination stops early; the error is
// non-nil only for an invalid request or a cancelled context.
func (f *Fetcher) FetchEligiblePosts(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	token := ""
	for res.Pages < req.Pages {
		page, err := f.fetchPage(ctx, req, token)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.Aborted = err
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("pagination stopped after %d page(s): %v", res.Pages, err))
			f.log.WithError(err).WithField("page", res.Pages+1).Warn("eligible posts request failed")
			break
		}
		if len(page.Data) == 0 {
			break
		}

		res.Posts = append(res.Posts, postsFromPage(page)...)
		res.Pages++
		f.metrics.Fetched(len(page.Data))
		fmt.Fprintf(f.progress, "page %d: %d posts\n", res.Pages, len(page.Data))

		if res.Pages >= req.Pages {
			break
		}
		token = page.Meta.NextToken
		if token == "" {
			break
		}
		if err := httputil.Sleep(ctx, f.cfg.PageDelay); err != nil {
			return res, err
		}
	}

	f.finishMetrics(ctx, req, res)

	if f.cfg.ComputeReach {
		for _, p := range res.Posts {
			score := 0.0
			if p.MetricsHydrated {
				score = ReachScore(p)
			}
			p.ReachScore = types.Float(score)
		}
	}
	return res, ctx.Err()
}

// fetchPage requests one page. A 429 is retried for the same page, as often
// as the server asks, so it never consumes a page slot.
func (f *Fetcher) fetchPage(ctx context.Context, req Request, token string) (*apiResponse, error) {
	params := url.Values{
		"test_mode":    {strconv.FormatBool(req.TestMode)},
		"max_results":  {strconv.Itoa(req.MaxResults)},
		"tweet.fields": {"public_metrics,author_id,created_at"},
		"expansions":   {"author_id"},
		"user.fields":  {"public_metrics"},
	}
	if token != "" {
		params.Set("pagination_token", token)
	}

	resp, err := httputil.Do(ctx, f.client, f.getter(eligibleURL, params), httputil.Policy{
		DefaultRetryAfter: f.cfg.DefaultRetryAfter,
		OnResponse:        f.observe(endpointEligible),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var page apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("parsing eligible posts response: %w", err)
	}
	return &page, nil
}

// postsFromPage converts a page; posts with embedded metrics are hydrated
// immediately.
func postsFromPage(page *apiResponse) []*types.Post {
	followers := followersByAuthor(page.Includes)
	posts := make([]*types.Post, 0, len(page.Data))
	for _, d := range page.Data {
		p := &types.Post{
			ID:        d.ID,
			Text:      d.Text,
			AuthorID:  d.AuthorID,
			CreatedAt: d.CreatedAt,
		}
		if d.PublicMetrics != nil {
			p.PublicMetrics = d.PublicMetrics.toPublic()
			p.MetricsHydrated = true
		}
		if n, ok := followers[d.AuthorID]; ok {
			p.AuthorFollowersCount = types.Int(n)
		}
		posts = append(posts, p)
	}
	return posts
}

// finishMetrics runs the secondary lookup when needed and annotates every
// post that is still unhydrated with a reason.
func (f *Fetcher) finishMetrics(ctx context.Context, req Request, res *Result) {
	if len(res.Posts) == 0 {
		return
	}

	inline := 0
	for _, p := range res.Posts {
		if p.MetricsHydrated {
			inline++
		}
	}
	f.metrics.Hydrated(inline)

	var reason string
	switch {
	case inline > 0:
		res.Hydrated = true
		reason = "metrics not returned inline"
	case !req.HydrateMetrics:
		reason = "metrics hydration not requested"
	default:
		if skip, why := f.tracker.ShouldSkip(); skip {
			f.log.WithField("reason", why).Warn("skipping metrics lookup")
			reason = why
		} else {
			h := f.hydrate(ctx, res.Posts)
			res.Hydrated = h.hydrated > 0
			res.BatchesProcessed = h.batches
			reason = h.reason
		}
	}

	if !res.Hydrated {
		res.Reason = reason
		res.Diagnostics = append(res.Diagnostics, "metrics unavailable: "+reason)
	}
	for _, p := range res.Posts {
		if !p.MetricsHydrated && p.MetricsReason == "" {
			p.MetricsReason = reason
		}
	}
}

func (f *Fetcher) getter(base string, params url.Values) func(context.Context) (*http.Request, error) {
	target := base + "?" + params.Encode()
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		if f.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", f.cfg.UserAgent)
		}
		return req, nil
	}
}

// observe records rate-limit headers and counts the response.
func (f *Fetcher) observe(endpoint string) func(*http.Response) {
	return func(resp *http.Response) {
		state := f.tracker.Record(resp.Header)
		if state.Remaining != nil {
			f.metrics.Remaining(*state.Remaining)
		}

		outcome := metrics.OutcomeOK
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			outcome = metrics.OutcomeRateLimited
		case resp.StatusCode != http.StatusOK:
			outcome = metrics.OutcomeError
		}
		f.metrics.Request(endpoint, outcome)

		entry := f.log.WithFields(logging.Fields{"endpoint": endpoint, "status": resp.StatusCode})
		if state.Remaining != nil {
			entry = entry.WithField("remaining", *state.Remaining)
		}
		if state.Reset != nil {
			entry = entry.WithField("reset", state.Reset.Format(time.RFC3339))
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			entry.WithField("retry_after", resp.Header.Get("Retry-After")).Warn("rate limited")
			return
		}
		entry.Debug("response")
	}
}

// describe renders a lookup failure as a reason string.
func describe(err error) string {
	var se *httputil.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s %d: %s", endpointLookup, se.StatusCode, se.Detail)
	}
	var rl *httputil.RateLimitedError
	if errors.As(err, &rl) {
		return fmt.Sprintf("%s %v", endpointLookup, rl)
	}
	return fmt.Sprintf("%s request failed: %v", endpointLookup, err)
}
