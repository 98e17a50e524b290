// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/claim-ranker/internal/secrets"
	"github.com/pdiddy/claim-ranker/pkg/types"
)

func withClaudeURL(t *testing.T, url string) {
	t.Helper()
	orig := claudeAPIURL
	claudeAPIURL = url
	t.Cleanup(func() { claudeAPIURL = orig })
}

func TestNewClaudeBackend_MissingKey(t *testing.T) {
	_, err := NewClaudeBackend(types.AIConfig{APIKey: "  "})
	var ce *secrets.CredentialError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{secrets.EnvAnthropicAPIKey}, ce.Missing)
}

func TestNewClaudeBackend_Defaults(t *testing.T) {
	b, err := NewClaudeBackend(types.AIConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, b.Model)
	assert.Equal(t, DefaultTemperature, b.Temperature)
	assert.Equal(t, DefaultMaxTokens, b.MaxTokens)
	assert.Equal(t, DefaultTimeout, b.Client.Timeout)
}

func TestClaudeBackend_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req claudeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 500, req.MaxTokens)
		assert.InDelta(t, 0.2, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "classify these", req.Messages[0].Content)

		json.NewEncoder(w).Encode(claudeResponse{Content: []claudeContent{
			{Type: "text", Text: `[{"id":"1",`},
			{Type: "tool_use"},
			{Type: "text", Text: `"is_fact_checkable":true}]`},
		}})
	}))
	defer server.Close()
	withClaudeURL(t, server.URL)

	b := &ClaudeBackend{APIKey: "sk-test", Model: "test-model", Temperature: 0.2, MaxTokens: 500}
	text, err := b.Complete(context.Background(), "classify these")
	require.NoError(t, err)
	assert.Equal(t, "[{\"id\":\"1\",\n\"is_fact_checkable\":true}]", text)
}

func TestClaudeBackend_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error"}}`))
	}))
	defer server.Close()
	withClaudeURL(t, server.URL)

	b := &ClaudeBackend{APIKey: "sk-test", Model: "m", MaxTokens: 10}
	_, err := b.Complete(context.Background(), "p")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "overloaded_error")
	assert.True(t, apiErr.Retryable())
}

func TestAPIErrorRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{529, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&APIError{StatusCode: tt.status}).Retryable(), tt.status)
	}
}
