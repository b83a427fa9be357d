// Package llm delegates document questions to a remote chat-completion provider.
package llm

import (
	"context"
	"fmt"
)

// Answerer answers a question against a block of document text.
// The only implementation talks to an OpenAI-compatible completion endpoint.
type Answerer interface {
	// Answer returns the provider's textual answer verbatim. Provider-side and
	// transport failures come back as *ProviderError so callers can branch on
	// failure without inspecting answer content.
	Answer(ctx context.Context, question, contextText string) (string, error)
}

// ProviderErrorKind classifies why a provider call failed.
type ProviderErrorKind string

const (
	// ProviderErrorRequest covers transport-level failures: the request never
	// produced a usable HTTP response.
	ProviderErrorRequest ProviderErrorKind = "request"
	// ProviderErrorAPI covers non-2xx responses from the provider.
	ProviderErrorAPI ProviderErrorKind = "api"
	// ProviderErrorDecode covers 2xx responses whose body could not be parsed.
	ProviderErrorDecode ProviderErrorKind = "decode"
	// ProviderErrorEmpty covers 2xx responses with no usable completion.
	ProviderErrorEmpty ProviderErrorKind = "empty"
)

// ProviderError is a failed provider call. It exists so that remote failures
// are a distinct, inspectable result rather than error text masquerading as an
// answer.
type ProviderError struct {
	Kind   ProviderErrorKind
	Detail string
	cause  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s error: %s", e.Kind, e.Detail)
}

func (e *ProviderError) Unwrap() error {
	return e.cause
}
