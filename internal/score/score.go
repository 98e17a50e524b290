// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score asks the remote capability for importance and checkability
// scores. Every input post comes back scored; a score the capability did
// not give in the 1-10 range is recorded as 0.
package score

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/claim-ranker/internal/httputil"
	"github.com/pdiddy/claim-ranker/internal/llm"
	"github.com/pdiddy/claim-ranker/internal/logging"
	"github.com/pdiddy/claim-ranker/internal/metrics"
	"github.com/pdiddy/claim-ranker/pkg/types"
)

const stage = "score"

// Score bounds. Values outside them normalize to Unscored.
const (
	Min      = 1
	Max      = 10
	Unscored = 0
)

// Result holds the scored posts in input order.
type Result struct {
	Posts []*types.Post

	// Unscored counts posts left with a zero importance or checkability.
	Unscored int

	// Diagnostics lists batches whose scores were lost.
	Diagnostics []string
}

type options struct {
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	progress io.Writer
}

// Option configures a Score call.
type Option func(*options)

// WithLogger sets the diagnostic logger.
func WithLogger(l logrus.FieldLogger) Option { return func(o *options) { o.log = l } }

// WithMetrics sets the run metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithProgress sets the writer for per-batch progress lines.
func WithProgress(w io.Writer) Option { return func(o *options) { o.progress = w } }

// Score sets CheckableScore, ImportanceScore, and ScoringReason on every
// post. The error is non-nil only when ctx is cancelled; posts of the
// batches not reached are returned unscored.
func Score(ctx context.Context, posts []*types.Post, backend llm.Backend, cfg types.AnalysisConfig, opts ...Option) (*Result, error) {
	o := options{progress: io.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logging.OrDiscard(o.log)
	cfg = cfg.Normalized()

	res := &Result{Posts: posts}
	for i, batch := range llm.Chunk(posts, cfg.BatchSize) {
		if i > 0 {
			if err := httputil.Sleep(ctx, cfg.BatchDelay); err != nil {
				return res, err
			}
		}

		scores, err := ask(ctx, backend, batch, cfg.MaxTextChars)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("score batch %d: %v", i+1, err))
			o.log.WithError(err).WithField("batch", i+1).Warn("no scores for batch")
		}
		o.metrics.Capability(stage, outcome(err))

		for _, p := range batch {
			apply(p, scores[p.ID])
			unscored := p.Importance() == Unscored || p.Checkability() == Unscored
			if unscored {
				res.Unscored++
			}
			o.metrics.Scored(unscored)
		}
		fmt.Fprintf(o.progress, "score batch %d: %d posts\n", i+1, len(batch))
	}

	o.log.WithFields(logging.Fields{
		"scored":   len(posts),
		"unscored": res.Unscored,
	}).Info("scoring finished")
	return res, nil
}

func ask(ctx context.Context, backend llm.Backend, batch []*types.Post, maxChars int) (map[string]llm.Object, error) {
	prompt, err := llm.ScorePrompt(llm.Items(batch, maxChars))
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	return llm.Query(ctx, backend, prompt)
}

// apply copies one answer onto p. A nil answer zeroes both scores.
func apply(p *types.Post, answer llm.Object) {
	p.CheckableScore = types.Int(Clamp(answer.Int("checkable_score")))
	p.ImportanceScore = types.Int(Clamp(answer.Int("importance_score")))
	p.ScoringReason = types.String(answer.String("scoring_reason"))
}

// Clamp returns v when ok and within Min..Max, Unscored otherwise.
func Clamp(v int, ok bool) int {
	if !ok || v < Min || v > Max {
		return Unscored
	}
	return v
}

func outcome(err error) string {
	var pe *llm.RemoteParseError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &pe):
		return metrics.OutcomeUnparsed
	default:
		return metrics.OutcomeError
	}
}
