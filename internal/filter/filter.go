// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter keeps posts that likely contain a fact-checkable claim.
// Verdicts come from the remote capability in batches; a deterministic
// heuristic rescues posts the capability missed.
package filter

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

const stage = "filter"

// Result holds the kept posts in input order.
type Result struct {
	Kept []*types.Post

	// Remote, Heuristic, and Dropped count posts by decision.
	Remote    int
	Heuristic int
	Dropped   int

	// Diagnostics lists batches whose verdicts were lost.
	Diagnostics []string
}

type options struct {
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	progress io.Writer
}

// Option configures a Filter call.
type Option func(*options)

// WithLogger sets the diagnostic logger.
func WithLogger(l logrus.FieldLogger) Option { return func(o *options) { o.log = l } }

// WithMetrics sets the run metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithProgress sets the writer for per-batch progress lines.
func WithProgress(w io.Writer) Option { return func(o *options) { o.progress = w } }

// Filter asks backend for a verdict on every post, batch by batch, and
// returns the posts judged fact-checkable, each with FactCheckReason set.
// A failed or unreadable batch yields no verdicts and falls back to the
// heuristic. The error is non-nil only when ctx is cancelled.
func Filter(ctx context.Context, posts []*types.Post, backend llm.Backend, cfg types.AnalysisConfig, opts ...Option) (*Result, error) {
	o := options{progress: io.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logging.OrDiscard(o.log)
	cfg = cfg.Normalized()

	res := &Result{}
	for i, batch := range llm.Chunk(posts, cfg.BatchSize) {
		if i > 0 {
			if err := httputil.Sleep(ctx, cfg.BatchDelay); err != nil {
				return res, err
			}
		}

		verdicts, err := ask(ctx, backend, batch, cfg.MaxTextChars)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("filter batch %d: %v", i+1, err))
			o.log.WithError(err).WithField("batch", i+1).Warn("no verdicts for batch, using heuristic only")
		}
		o.metrics.Capability(stage, outcome(err))

		kept := 0
		for _, p := range batch {
			decision, reason := decide(p, verdicts, cfg.StrictRejections)
			o.metrics.Decision(decision)
			switch decision {
			case metrics.DecisionRemote:
				res.Remote++
			case metrics.DecisionHeuristic:
				res.Heuristic++
			default:
				res.Dropped++
				continue
			}
			p.FactCheckReason = types.String(reason)
			res.Kept = append(res.Kept, p)
			kept++
		}
		fmt.Fprintf(o.progress, "filter batch %d: kept %d of %d\n", i+1, kept, len(batch))
	}

	o.log.WithFields(logging.Fields{
		"input":     len(posts),
		"remote":    res.Remote,
		"heuristic": res.Heuristic,
		"dropped":   res.Dropped,
	}).Info("filter finished")
	return res, nil
}

func ask(ctx context.Context, backend llm.Backend, batch []*types.Post, maxChars int) (map[string]llm.Object, error) {
	prompt, err := llm.FilterPrompt(llm.Items(batch, maxChars))
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	return llm.Query(ctx, backend, prompt)
}

// decide applies one verdict. A positive verdict keeps the post with the
// capability's reason. Otherwise the heuristic may rescue it: always when
// the verdict is absent, and when it is negative unless strict.
func decide(p *types.Post, verdicts map[string]llm.Object, strict bool) (string, string) {
	v, ok := verdicts[p.ID]
	if ok && v.True("is_fact_checkable") {
		return metrics.DecisionRemote, v.String("reason")
	}

	rejected := false
	if ok {
		b, isBool := v["is_fact_checkable"].(bool)
		rejected = isBool && !b
	}
	if rejected && strict {
		return metrics.DecisionDropped, ""
	}
	if !LooksClaimy(p.Text) {
		return metrics.DecisionDropped, ""
	}

	reason := ""
	if ok && !rejected {
		reason = v.String("reason")
	}
	if reason == "" {
		reason = HeuristicReason
	}
	return metrics.DecisionHeuristic, reason
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
