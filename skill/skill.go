package skill

import "context"

// Tool is one externally invocable operation with a declared argument schema.
//
// Implementations must be safe to invoke concurrently with other distinct
// tool calls, must respect the deadline carried by ctx, and should be safe to
// abandon: a timed-out or cancelled call is released fire-and-forget, not
// killed.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case
	// recommended). Names are globally unique across enabled skills.
	Name() string

	// Description returns a human-readable description provided to the
	// model so it can decide when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments
	// (types, required/optional, defaults).
	Parameters() map[string]any

	// Call executes the tool with already-parsed arguments. Failures are
	// reported as *ToolError where possible so the caller can categorize
	// them without string matching.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Skill is a named bundle of related tools registered with the system.
// Skills are registered at startup, optionally disabled by configuration and
// never mutated at runtime except enable/disable.
type Skill interface {
	// Name returns the skill name, unique within the registry.
	Name() string

	// Description returns a human description used for help listings.
	Description() string

	// Category groups related skills for display purposes.
	Category() string

	// Tools returns the ordered list of tools the skill exposes.
	Tools() []Tool
}

// BaseSkill is a simple value implementation of Skill for statically defined
// capability bundles.
type BaseSkill struct {
	name        string
	description string
	category    string
	tools       []Tool
}

// New constructs a BaseSkill from name, description, category and tools.
func New(name, description, category string, tools ...Tool) *BaseSkill {
	return &BaseSkill{name: name, description: description, category: category, tools: tools}
}

// Name returns the skill name.
func (s *BaseSkill) Name() string { return s.name }

// Description returns the human description.
func (s *BaseSkill) Description() string { return s.description }

// Category returns the display category.
func (s *BaseSkill) Category() string { return s.category }

// Tools returns the exposed tools in declaration order.
func (s *BaseSkill) Tools() []Tool { return s.tools }
