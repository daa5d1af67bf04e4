// Package llm provides the language-model adapter consumed by the turn
// planner. Exactly one completion call is made per planned turn; every
// provider implements the same two-method Client interface so the
// pipeline never knows which backend is active.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrNoAPIKey signals that no provider credentials were found.
var ErrNoAPIKey = errors.New("no LLM provider configured")

// APIError is a transport or quota failure from a provider, as opposed
// to malformed model output (which surfaces as a parse error in the
// planner). The distinction lets the planner fail closed without
// retrying malformed output.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsAPIError reports whether err is a provider transport/quota failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
