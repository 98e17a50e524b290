// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/claim-ranker/internal/export"
	"github.com/pdiddy/claim-ranker/internal/fetch"
	"github.com/pdiddy/claim-ranker/internal/filter"
	"github.com/pdiddy/claim-ranker/internal/llm"
	"github.com/pdiddy/claim-ranker/internal/rank"
	"github.com/pdiddy/claim-ranker/internal/score"
	"github.com/pdiddy/claim-ranker/pkg/types"
)

// analysis is the outcome of the filter, score, and rank stages.
type analysis struct {
	Ranked      []*types.Post
	Input       int
	Kept        int
	Unscored    int
	Diagnostics []string
}

// runFetch performs the fetch stage and reports a metrics banner when the
// posts carry no engagement counts.
func runFetch(ctx context.Context, cfg types.PipelineConfig, progress io.Writer) (*fetch.Result, error) {
	f, err := fetch.New(loadedSecrets.X(), cfg.Fetch,
		fetch.WithLogger(logger),
		fetch.WithMetrics(runMetrics),
		fetch.WithProgress(progress),
	)
	if err != nil {
		return nil, err
	}

	res, err := f.FetchEligiblePosts(ctx, fetch.RequestFromConfig(cfg.Fetch))
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(progress, "Fetched %d posts across %d page(s)\n", len(res.Posts), res.Pages)
	if len(res.Posts) > 0 && !res.Hydrated {
		printMetricsBanner(os.Stderr, res.Reason)
	}
	return res, nil
}

func printMetricsBanner(w io.Writer, reason string) {
	fmt.Fprintln(w, "WARNING: engagement metrics unavailable.")
	if reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", reason)
	}
	fmt.Fprintln(w, "  Retweet counts are 0; ranking falls back to importance and checkability.")
}

// newBackend builds the capability client with retries.
func newBackend(cfg types.AIConfig) (llm.Backend, error) {
	claude, err := llm.NewClaudeBackend(cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewRetryingBackend(claude, cfg.MaxRetries, logger), nil
}

// runAnalysis filters, scores, and ranks posts. The optional engagement
// threshold applies before filtering, after ranking, or both.
func runAnalysis(ctx context.Context, cfg types.PipelineConfig, backend llm.Backend, posts []*types.Post, progress io.Writer) (*analysis, error) {
	out := &analysis{Input: len(posts)}

	if cfg.Rank.ThresholdBeforeScoring {
		posts = rank.ApplyThreshold(posts, cfg.Rank.MinRetweets)
		fmt.Fprintf(progress, "Threshold: %d of %d posts have at least %d retweets\n",
			len(posts), out.Input, cfg.Rank.MinRetweets)
	}

	filtered, err := filter.Filter(ctx, posts, backend, cfg.Analysis,
		filter.WithLogger(logger),
		filter.WithMetrics(runMetrics),
		filter.WithProgress(progress),
	)
	if err != nil {
		return nil, err
	}
	out.Kept = len(filtered.Kept)
	out.Diagnostics = append(out.Diagnostics, filtered.Diagnostics...)
	fmt.Fprintf(progress, "Filter: kept %d (%d remote, %d heuristic), dropped %d\n",
		out.Kept, filtered.Remote, filtered.Heuristic, filtered.Dropped)

	scored, err := score.Score(ctx, filtered.Kept, backend, cfg.Analysis,
		score.WithLogger(logger),
		score.WithMetrics(runMetrics),
		score.WithProgress(progress),
	)
	if err != nil {
		return nil, err
	}
	out.Unscored = scored.Unscored
	out.Diagnostics = append(out.Diagnostics, scored.Diagnostics...)

	ranked := rank.Rank(scored.Posts, cfg.Rank)
	if cfg.Rank.ThresholdAfterRanking {
		ranked = rank.ApplyThreshold(ranked, cfg.Rank.MinRetweets)
	}
	out.Ranked = ranked
	return out, nil
}

// printRanked writes the top n posts as a compact table.
func printRanked(w io.Writer, posts []*types.Post, n int) {
	if n <= 0 || n > len(posts) {
		n = len(posts)
	}
	if n == 0 {
		fmt.Fprintln(w, "No posts ranked.")
		return
	}
	fmt.Fprintf(w, "%-4s  %6s  %3s  %3s  %7s  %s\n", "#", "FINAL", "IMP", "CHK", "RTS", "POST")
	for i, p := range posts[:n] {
		fmt.Fprintf(w, "%-4d  %6.2f  %3d  %3d  %7d  %s  %s\n",
			i+1, p.Final(), p.Importance(), p.Checkability(), p.RetweetCount,
			p.Permalink(), llm.Truncate(p.Text, 60))
	}
}

// runExport writes posts to the configured destination. An empty set is
// reported instead of treated as a failure.
func runExport(posts []*types.Post, cfg types.ExportConfig, w io.Writer) error {
	path, err := export.Export(posts, cfg)
	if err != nil {
		var empty *export.EmptyExportError
		if errors.As(err, &empty) {
			fmt.Fprintf(w, "Nothing to export; %s was not written.\n", empty.Destination)
			return nil
		}
		return err
	}
	fmt.Fprintf(w, "Exported %d posts to %s\n", len(posts), path)
	return nil
}

func printDiagnostics(w io.Writer, diags []string) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(w, "%d degraded step(s):\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(w, "  - %s\n", d)
	}
}
