// Package model abstracts a chat-completion capability with streaming and
// tool-call support. Providers adapt their native APIs into the normalized
// Request/Response shapes so the orchestration loop never branches per
// vendor. Failures are reported as *ProviderError with a distinct kind for
// connectivity, malformed-response and rate-limit conditions.
package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/skillmesh/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input assembled by the orchestrator:
// instructions, the bounded conversation window and the enabled tool surface.
type Request struct {
	Instructions string           `json:"instructions"`
	Turns        []core.Turn      `json:"turns"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// Usage captures token usage statistics for a completed response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a partial or final chunk emitted by a model. Streaming
// providers emit ordered partial responses carrying Delta, then exactly one
// final response carrying the accumulated Content and any tool calls.
type Response struct {
	Partial      bool                   `json:"partial"`
	Delta        string                 `json:"delta,omitempty"`
	Content      string                 `json:"content,omitempty"`
	ToolCalls    []core.ToolCallRequest `json:"tool_calls,omitempty"`
	FinishReason string                 `json:"finish_reason,omitempty"`
	Usage        *Usage                 `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Generate
// returns a response channel and an error channel; both are closed when the
// call completes. Implementations must respect ctx cancellation at every
// blocking point.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Ping performs a cheap health probe of the backing provider.
	Ping(ctx context.Context) error

	// Info returns information about the model implementation.
	Info() Info
}

// ErrorKind categorizes provider failures for the retry policy.
type ErrorKind string

const (
	// KindConnectivity marks the provider as unreachable or timed out.
	// These failures are transient and eligible for bounded-backoff retry.
	KindConnectivity ErrorKind = "connectivity"
	// KindMalformed marks a response the adapter could not interpret.
	KindMalformed ErrorKind = "malformed"
	// KindRateLimit marks a provider-side rate limit rejection.
	KindRateLimit ErrorKind = "rate_limit"
)

// ProviderError wraps a provider failure with its classification.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (%s): %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the orchestrator may retry the call. Only
// transient connectivity failures qualify; malformed responses and rate
// limits surface immediately.
func (e *ProviderError) Retryable() bool { return e.Kind == KindConnectivity }

// NewProviderError constructs a classified provider error.
func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}
