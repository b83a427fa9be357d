package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pdfqa/internal/config"
)

// systemPrompt frames every request as document question answering.
const systemPrompt = "You are a helpful AI assistant for answering questions from PDF documents."

// OpenAIClient implements Answerer against any OpenAI-compatible
// /chat/completions endpoint (OpenRouter, vLLM, LiteLLM, self-hosted models).
// One request per question: no retries, no streaming, no answer caching, and
// no timeout beyond the transport default.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds the provider client from an immutable config snapshot.
func NewOpenAIClient(cfg config.LLMConfig) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

var _ Answerer = (*OpenAIClient)(nil)

// Answer sends the fixed system prompt plus a single user turn carrying the
// document text and question, and returns the completion verbatim.
func (c *OpenAIClient) Answer(ctx context.Context, question, contextText string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", contextText, question)},
		},
	})
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Kind: ProviderErrorEmpty, Detail: "completion contained no choices"}
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", &ProviderError{Kind: ProviderErrorEmpty, Detail: "completion contained no text"}
	}
	return answer, nil
}

// classifyError maps go-openai errors onto ProviderError kinds. Status-bearing
// errors mean the provider responded with a failure; JSON errors mean it
// answered 2xx with a body the client could not parse; everything else is a
// transport failure.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Kind:   ProviderErrorAPI,
			Detail: fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message),
			cause:  err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Kind:   ProviderErrorAPI,
			Detail: fmt.Sprintf("status %d", reqErr.HTTPStatusCode),
			cause:  err,
		}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &ProviderError{Kind: ProviderErrorDecode, Detail: err.Error(), cause: err}
	}
	return &ProviderError{Kind: ProviderErrorRequest, Detail: err.Error(), cause: err}
}
