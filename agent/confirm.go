package agent

import (
	"context"

	"github.com/hupe1980/skillmesh/core"
)

// ConfirmationProvider is the external approval capability supplied by the UI
// layer. RequestConfirmation may block indefinitely waiting for a human but
// must honor ctx cancellation.
type ConfirmationProvider interface {
	RequestConfirmation(ctx context.Context, call core.ToolCallRequest) (bool, error)
}

// ApproveAll approves every confirmation request. Intended for tests and
// fully trusted automation.
type ApproveAll struct{}

// RequestConfirmation implements ConfirmationProvider.
func (ApproveAll) RequestConfirmation(context.Context, core.ToolCallRequest) (bool, error) {
	return true, nil
}

// DenyAll denies every confirmation request. This is the library default so
// confirmation-gated tools are never dispatched unless a real provider is
// wired in.
type DenyAll struct{}

// RequestConfirmation implements ConfirmationProvider.
func (DenyAll) RequestConfirmation(context.Context, core.ToolCallRequest) (bool, error) {
	return false, nil
}

// ConfirmationFunc adapts a function to the ConfirmationProvider interface.
type ConfirmationFunc func(ctx context.Context, call core.ToolCallRequest) (bool, error)

// RequestConfirmation implements ConfirmationProvider.
func (f ConfirmationFunc) RequestConfirmation(ctx context.Context, call core.ToolCallRequest) (bool, error) {
	return f(ctx, call)
}
