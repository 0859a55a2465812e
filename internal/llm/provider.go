// Package llm abstracts the language-completion capability behind a small
// Provider interface with one implementation per upstream API. Every
// network or API failure surfaces as a *ProviderError so callers can treat
// "the model is unreachable" uniformly, whatever the backend.
package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	// Failures are returned as *ProviderError.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
