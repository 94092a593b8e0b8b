package skill

import "fmt"

// Tool error kinds surfaced to the model as data. They let the reasoning loop
// distinguish recoverable failures without parsing error prose.
const (
	// KindTimeout marks a handler that exceeded the per-skill timeout.
	KindTimeout = "timeout"
	// KindUnknownTool marks a call to a tool no enabled skill exposes.
	KindUnknownTool = "unknown_tool"
	// KindDeclined marks a confirmation-gated call denied by the user.
	KindDeclined = "declined"
	// KindValidation marks arguments that failed schema validation.
	KindValidation = "validation"
	// KindExecution marks a handler that returned an error.
	KindExecution = "execution"
	// KindCancelled marks a call abandoned due to session cancellation.
	KindCancelled = "cancelled"
)

// ToolError represents a failure of a single tool call. It is never fatal to
// the session: the orchestrator folds it back into the conversation as an
// error-carrying tool result so the model can self-correct.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func (e *ToolError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Kind, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given kind.
func NewToolError(tool, message, kind string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Kind: kind}
}

// DuplicateSkillError signals a second registration under an already taken
// skill name. Fatal at startup.
type DuplicateSkillError struct {
	Skill string
}

func (e *DuplicateSkillError) Error() string {
	return fmt.Sprintf("skill %q is already registered", e.Skill)
}

// DuplicateToolError signals a tool name collision across skills. Tool names
// are globally unique across enabled skills; the collision surfaces at load
// time rather than being hidden at dispatch time.
type DuplicateToolError struct {
	Tool          string
	Skill         string
	ExistingSkill string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q of skill %q collides with tool of skill %q",
		e.Tool, e.Skill, e.ExistingSkill)
}

// UnknownToolError signals a resolution request for a tool no enabled skill
// exposes.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("no enabled skill exposes tool %q", e.Tool)
}
