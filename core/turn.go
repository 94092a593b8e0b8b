package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a Turn.
type Role string

const (
	// RoleUser marks a turn authored by the human caller.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the model.
	RoleAssistant Role = "assistant"
	// RoleTool marks a turn carrying the result of a single tool call.
	RoleTool Role = "tool"
)

// ToolCallRequest is a model-issued request to invoke a named tool. The ID is
// unique within the originating turn and correlates the eventual ToolResult.
// Arguments hold the serialized (JSON) payload exactly as emitted by the
// model; parsing and schema validation happen at dispatch time. A request is
// immutable once created.
type ToolCallRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// ToolResult captures the outcome of exactly one prior ToolCallRequest,
// referenced by CallID. On failure Error holds the message and Kind a stable
// machine-readable category (timeout, unknown_tool, declined, ...) so the
// model can reason about what went wrong.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content any    `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Failed reports whether the result carries an error payload.
func (r ToolResult) Failed() bool { return r.Error != "" }

// Turn is one message-equivalent unit of a conversation: user input,
// assistant output (possibly requesting tool calls) or a tool result. After
// being appended to a transcript a Turn is never rewritten; a cancelled
// streaming turn is persisted as-is with Partial set.
type Turn struct {
	ID         string            `json:"id"`
	Role       Role              `json:"role"`
	Content    string            `json:"content,omitempty"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`
	ToolResult *ToolResult       `json:"tool_result,omitempty"`
	Partial    bool              `json:"partial,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	TokenCount int               `json:"token_count"`
}

// NewID generates a unique identifier for turns and tool calls.
func NewID() string { return uuid.NewString() }

func newTurn(role Role) Turn {
	return Turn{ID: NewID(), Role: role, Timestamp: time.Now().UTC()}
}

// NewUserTurn creates a user-authored turn.
func NewUserTurn(content string) Turn {
	t := newTurn(RoleUser)
	t.Content = content
	t.TokenCount = EstimateTokens(content)
	return t
}

// NewAssistantTurn creates an assistant turn carrying optional text content
// and zero or more tool call requests.
func NewAssistantTurn(content string, calls []ToolCallRequest) Turn {
	t := newTurn(RoleAssistant)
	t.Content = content
	t.ToolCalls = calls
	t.TokenCount = EstimateTokens(content)
	for _, c := range calls {
		t.TokenCount += EstimateTokens(c.Name) + EstimateTokens(c.Arguments)
	}
	return t
}

// NewToolResultTurn creates a tool turn wrapping a single result.
func NewToolResultTurn(result ToolResult) Turn {
	t := newTurn(RoleTool)
	t.ToolResult = &result
	t.TokenCount = EstimateTokens(result.Error) + EstimateTokens(Stringify(result.Content))
	return t
}

// GetToolCalls returns the tool call requests of an assistant turn preserving
// their original order. Nil for non-assistant turns.
func (t Turn) GetToolCalls() []ToolCallRequest {
	if t.Role != RoleAssistant {
		return nil
	}
	return t.ToolCalls
}

// IsFinal reports whether the turn concludes a reasoning loop iteration: a
// complete assistant turn with no pending tool calls.
func (t Turn) IsFinal() bool {
	return t.Role == RoleAssistant && !t.Partial && len(t.ToolCalls) == 0
}
