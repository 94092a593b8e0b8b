package skill

import (
	"sync"

	"github.com/hupe1980/skillmesh/core"
	"github.com/hupe1980/skillmesh/logging"
)

// Policy drives which registered skills are enabled and which tools require
// human confirmation before dispatch. Whitelist and blacklist modes are
// mutually exclusive: whitelist restricts to an explicit allow-list,
// blacklist excludes a deny-list.
type Policy struct {
	Whitelist           []string `yaml:"whitelist"`
	Blacklist           []string `yaml:"blacklist"`
	RequireConfirmation []string `yaml:"require_confirmation"`
}

// Validate rejects policies that set both modes non-empty.
func (p Policy) Validate() error {
	if len(p.Whitelist) > 0 && len(p.Blacklist) > 0 {
		return core.NewConfigurationError("skill whitelist and blacklist are mutually exclusive")
	}
	return nil
}

type toolBinding struct {
	skill Skill
	tool  Tool
}

// Registry holds the set of registered skills and routes tool names to their
// handlers. It is read-mostly after startup: registrations happen at load
// time, enable/disable toggles are applied atomically under the write lock so
// no dispatch observes a half-updated enabled set. All read paths are safe
// for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	skills    map[string]Skill
	order     []string
	tools     map[string]toolBinding
	disabled  map[string]bool
	whitelist map[string]bool
	blacklist map[string]bool
	confirm   map[string]bool
	logger    logging.Logger
}

// RegistryOptions configure registry construction.
type RegistryOptions struct {
	Policy Policy
	Logger logging.Logger
}

// NewRegistry creates an empty registry with the given policy. A policy that
// sets both whitelist and blacklist is a configuration error.
func NewRegistry(optFns ...func(o *RegistryOptions)) (*Registry, error) {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		skills:    make(map[string]Skill),
		tools:     make(map[string]toolBinding),
		disabled:  make(map[string]bool),
		whitelist: toSet(opts.Policy.Whitelist),
		blacklist: toSet(opts.Policy.Blacklist),
		confirm:   toSet(opts.Policy.RequireConfirmation),
		logger:    opts.Logger,
	}
	return r, nil
}

// Register adds a skill and indexes its tools. A duplicate skill name yields
// *DuplicateSkillError; a tool name already claimed by another skill yields
// *DuplicateToolError. Both are configuration errors fatal at startup.
func (r *Registry) Register(s Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[s.Name()]; exists {
		return &DuplicateSkillError{Skill: s.Name()}
	}
	for _, t := range s.Tools() {
		if existing, exists := r.tools[t.Name()]; exists {
			return &DuplicateToolError{
				Tool:          t.Name(),
				Skill:         s.Name(),
				ExistingSkill: existing.skill.Name(),
			}
		}
	}

	r.skills[s.Name()] = s
	r.order = append(r.order, s.Name())
	for _, t := range s.Tools() {
		r.tools[t.Name()] = toolBinding{skill: s, tool: t}
	}

	r.logger.Debug("skill.registered", "skill", s.Name(), "tools", len(s.Tools()))
	return nil
}

// Resolve maps a tool name to its owning skill and tool. Tools of disabled
// skills resolve as unknown so a dispatch can never reach a skill the
// configuration excluded.
func (r *Registry) Resolve(toolName string) (Skill, Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	binding, ok := r.tools[toolName]
	if !ok || !r.enabledLocked(binding.skill.Name()) {
		return nil, nil, &UnknownToolError{Tool: toolName}
	}
	return binding.skill, binding.tool, nil
}

// ListEnabled returns the enabled skills in registration order, reflecting
// the current whitelist/blacklist configuration and runtime toggles.
func (r *Registry) ListEnabled() []Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Skill, 0, len(r.order))
	for _, name := range r.order {
		if r.enabledLocked(name) {
			out = append(out, r.skills[name])
		}
	}
	return out
}

// EnabledTools returns the tools of all enabled skills in registration order.
func (r *Registry) EnabledTools() []Tool {
	var out []Tool
	for _, s := range r.ListEnabled() {
		out = append(out, s.Tools()...)
	}
	return out
}

// IsConfirmationRequired reports whether dispatching the named tool requires
// an explicit human approval first. The confirmation set may name either
// tools or whole skills.
func (r *Registry) IsConfirmationRequired(toolName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.confirm[toolName] {
		return true
	}
	if binding, ok := r.tools[toolName]; ok && r.confirm[binding.skill.Name()] {
		return true
	}
	return false
}

// SetEnabled toggles a registered skill at runtime. The change is applied
// atomically under the write lock. Unknown skills yield a configuration
// error.
func (r *Registry) SetEnabled(skillName string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.skills[skillName]; !ok {
		return core.NewConfigurationError("cannot toggle unknown skill %q", skillName)
	}
	if enabled {
		delete(r.disabled, skillName)
	} else {
		r.disabled[skillName] = true
	}
	return nil
}

func (r *Registry) enabledLocked(skillName string) bool {
	if r.disabled[skillName] {
		return false
	}
	if len(r.whitelist) > 0 {
		return r.whitelist[skillName]
	}
	return !r.blacklist[skillName]
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
