// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(t *testing.T) {
	t.Helper()
	orig := backoffBase
	backoffBase = time.Millisecond
	t.Cleanup(func() { backoffBase = orig })
}

// scripted returns the given errors in order, then "ok".
func scripted(calls *int, errs ...error) Backend {
	return BackendFunc(func(ctx context.Context, prompt string) (string, error) {
		*calls++
		if *calls <= len(errs) {
			return "", errs[*calls-1]
		}
		return "ok", nil
	})
}

func TestRetryingBackend_RecoversFromTransientErrors(t *testing.T) {
	fastBackoff(t)
	calls := 0
	b := NewRetryingBackend(scripted(&calls,
		errors.New("connection reset"),
		&APIError{StatusCode: http.StatusTooManyRequests},
	), 2, nil)

	text, err := b.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, calls)
}

func TestRetryingBackend_GivesUpAfterMaxRetries(t *testing.T) {
	fastBackoff(t)
	calls := 0
	overloaded := &APIError{StatusCode: 529, Body: "overloaded"}
	b := NewRetryingBackend(scripted(&calls, overloaded, overloaded, overloaded, overloaded), 2, nil)

	_, err := b.Complete(context.Background(), "p")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 529, apiErr.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestRetryingBackend_DoesNotRetryClientErrors(t *testing.T) {
	fastBackoff(t)
	calls := 0
	b := NewRetryingBackend(scripted(&calls, &APIError{StatusCode: http.StatusBadRequest}), 2, nil)

	_, err := b.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryingBackend_NegativeDisablesRetries(t *testing.T) {
	fastBackoff(t)
	calls := 0
	b := NewRetryingBackend(scripted(&calls, errors.New("boom")), -1, nil)

	_, err := b.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(nil))
	assert.False(t, retryable(context.Canceled))
	assert.True(t, retryable(errors.New("eof")))
	assert.False(t, retryable(&APIError{StatusCode: 401}))
	assert.True(t, retryable(&APIError{StatusCode: 502}))
}
