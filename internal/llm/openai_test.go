package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient(config.LLMConfig{
		BaseURL: srv.URL + "/v1",
		APIKey:  "test-key",
		Model:   "test-model",
	})
	require.NoError(t, err)
	return c
}

func TestOpenAIClient_Answer(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  It is about solar energy.  "}},
			},
		})
	})

	answer, err := c.Answer(context.Background(), "What is this about?", "Document text here.")

	require.NoError(t, err)
	assert.Equal(t, "It is about solar energy.", answer)

	assert.Equal(t, "test-model", gotBody["model"])
	msgs := gotBody["messages"].([]any)
	require.Len(t, msgs, 2)
	sys := msgs[0].(map[string]any)
	assert.Equal(t, "system", sys["role"])
	assert.Equal(t, systemPrompt, sys["content"])
	user := msgs[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "Context:\nDocument text here.")
	assert.Contains(t, user["content"], "Question:\nWhat is this about?")
}

func TestOpenAIClient_Answer_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "rate_limit_error"},
		})
	})

	answer, err := c.Answer(context.Background(), "q", "ctx")

	assert.Empty(t, answer)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, ProviderErrorAPI, provErr.Kind)
	assert.Contains(t, provErr.Detail, "rate limited")
}

func TestOpenAIClient_Answer_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{not json"))
	})

	answer, err := c.Answer(context.Background(), "q", "ctx")

	assert.Empty(t, answer)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, ProviderErrorDecode, provErr.Kind)
}

func TestOpenAIClient_Answer_EmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	answer, err := c.Answer(context.Background(), "q", "ctx")

	assert.Empty(t, answer)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, ProviderErrorEmpty, provErr.Kind)
}

func TestOpenAIClient_Answer_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close() // connection refused from here on

	c, err := NewOpenAIClient(config.LLMConfig{BaseURL: base + "/v1", Model: "test-model"})
	require.NoError(t, err)

	answer, err := c.Answer(context.Background(), "q", "ctx")

	assert.Empty(t, answer)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, ProviderErrorRequest, provErr.Kind)
	assert.NotNil(t, errors.Unwrap(provErr))
}

func TestNewOpenAIClient_RequiresModel(t *testing.T) {
	_, err := NewOpenAIClient(config.LLMConfig{})
	assert.Error(t, err)
}
