package llm

import (
	"errors"
	"fmt"
)

// ProviderError wraps any completion failure: network errors, auth
// rejections, and upstream API errors alike. The orchestrator maps it to a
// provider_error turn status instead of treating it as "no tool requested".
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// providerErr wraps err for the named provider unless it already is a
// ProviderError (the rate limiter delegates to wrapped providers).
func providerErr(provider string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}

// providerErrf formats a new ProviderError.
func providerErrf(provider, format string, args ...any) error {
	return &ProviderError{Provider: provider, Err: fmt.Errorf(format, args...)}
}
