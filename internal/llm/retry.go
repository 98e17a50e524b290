// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/claim-ranker/internal/logging"
)

// DefaultMaxRetries is used when AIConfig.MaxRetries is zero.
const DefaultMaxRetries = 2

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// RetryingBackend retries transient capability failures: transport errors
// and 429 or 5xx responses. Other failures are returned on the first attempt.
type RetryingBackend struct {
	next     Backend
	executor failsafe.Executor[string]
	log      logrus.FieldLogger
}

// NewRetryingBackend wraps next with up to maxRetries retries and
// exponential backoff. A negative maxRetries disables retries.
func NewRetryingBackend(next Backend, maxRetries int, log logrus.FieldLogger) *RetryingBackend {
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	policy := retrypolicy.NewBuilder[string]().
		HandleIf(func(_ string, err error) bool { return retryable(err) }).
		WithBackoff(backoffBase, 8*backoffBase).
		WithMaxRetries(maxRetries).
		ReturnLastFailure().
		Build()
	return &RetryingBackend{
		next:     next,
		executor: failsafe.With[string](policy),
		log:      logging.OrDiscard(log),
	}
}

// Complete calls the wrapped backend under the retry policy.
func (r *RetryingBackend) Complete(ctx context.Context, prompt string) (string, error) {
	attempt := 0
	return r.executor.WithContext(ctx).Get(func() (string, error) {
		attempt++
		text, err := r.next.Complete(ctx, prompt)
		if err != nil && retryable(err) {
			r.log.WithError(err).WithField("attempt", attempt).Warn("capability call failed")
		}
		return text, err
	})
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
