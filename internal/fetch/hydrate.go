// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/claim-ranker/internal/httputil"
	"github.com/pdiddy/claim-ranker/internal/logging"
	"github.com/pdiddy/claim-ranker/pkg/types"
)

const noMetricsReason = "no metrics returned (check API access tier)"

// hydration summarizes a secondary lookup run.
type hydration struct {
	hydrated int
	batches  int
	reason   string
}

// hydrate looks up engagement metrics for posts in batches of up to 100
// ids. A failed batch is abandoned and the next one is tried; a rate-limit
// wait above the configured cap, or a low remaining quota, ends hydration
// for all remaining posts.
func (f *Fetcher) hydrate(ctx context.Context, posts []*types.Post) hydration {
	byID := make(map[string][]*types.Post, len(posts))
	var ids []string
	for _, p := range posts {
		if p.ID == "" {
			continue
		}
		if _, seen := byID[p.ID]; !seen {
			ids = append(ids, p.ID)
		}
		byID[p.ID] = append(byID[p.ID], p)
	}
	if len(ids) == 0 {
		return hydration{reason: "missing post ids"}
	}

	var h hydration
	lastErr := ""
	for i, batch := range chunkIDs(ids, lookupBatchSize) {
		if i > 0 {
			if err := httputil.Sleep(ctx, f.cfg.LookupDelay); err != nil {
				lastErr = err.Error()
				break
			}
		}

		if skip, why := f.tracker.ShouldSkip(); skip {
			f.log.WithFields(logging.Fields{"batch": i + 1, "reason": why}).Warn("stopping metrics lookup")
			lastErr = why
			break
		}

		resp, err := f.lookup(ctx, batch)
		if err != nil {
			lastErr = describe(err)
			entry := f.log.WithError(err).WithField("batch", i+1)
			var rl *httputil.RateLimitedError
			if errors.As(err, &rl) && rl.TooLong {
				entry.Warn("advised wait too long, abandoning metrics lookup")
				break
			}
			if ctx.Err() != nil {
				break
			}
			entry.Warn("metrics lookup batch failed")
			continue
		}

		followers := followersByAuthor(resp.Includes)
		for _, d := range resp.Data {
			for _, p := range byID[d.ID] {
				if d.PublicMetrics != nil {
					p.PublicMetrics = d.PublicMetrics.toPublic()
				} else {
					p.PublicMetrics = types.PublicMetrics{}
				}
				if d.AuthorID != "" {
					p.AuthorID = d.AuthorID
				}
				if n, ok := followers[p.AuthorID]; ok {
					p.AuthorFollowersCount = types.Int(n)
				}
				if !p.MetricsHydrated {
					p.MetricsHydrated = true
					p.MetricsReason = ""
					h.hydrated++
				}
			}
		}
		h.batches++
		fmt.Fprintf(f.progress, "metrics batch %d: %d posts\n", i+1, len(resp.Data))
	}

	f.metrics.Hydrated(h.hydrated)

	switch {
	case h.hydrated == 0 && lastErr == "":
		h.reason = noMetricsReason
	case lastErr != "":
		h.reason = lastErr
	case h.hydrated < len(posts):
		h.reason = "metrics not returned by lookup"
	}
	f.log.WithFields(logging.Fields{
		"hydrated": h.hydrated,
		"batches":  h.batches,
		"reason":   h.reason,
	}).Info("metrics lookup finished")
	return h
}

// lookup fetches one batch from the bulk lookup endpoint: up to three
// attempts, exponential backoff after transport errors, no retry on other
// HTTP errors.
func (f *Fetcher) lookup(ctx context.Context, ids []string) (*apiResponse, error) {
	params := url.Values{
		"ids":          {strings.Join(ids, ",")},
		"tweet.fields": {"public_metrics,author_id"},
		"user.fields":  {"public_metrics"},
		"expansions":   {"author_id"},
	}

	resp, err := httputil.Do(ctx, f.client, f.getter(lookupURL, params), httputil.Policy{
		MaxAttempts:       f.cfg.LookupAttempts,
		BaseDelay:         f.cfg.BackoffBase,
		DefaultRetryAfter: f.cfg.DefaultRetryAfter,
		MaxRetryAfter:     f.cfg.MaxRetryAfter,
		RetryTransport:    true,
		OnResponse:        f.observe(endpointLookup),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing lookup response: %w", err)
	}
	return &out, nil
}

func chunkIDs(ids []string, n int) [][]string {
	var out [][]string
	for i := 0; i < len(ids); i += n {
		end := min(i+n, len(ids))
		out = append(out, ids[i:end])
	}
	return out
}
