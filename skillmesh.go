// Package skillmesh provides a high-level façade over the orchestration core
// and its services (models, skills, memory tiers & logging) for building
// local-first tool-calling agents. Most applications interact with this
// package by:
//  1. Creating a Mesh via New() from a validated config.Config
//  2. Registering one or more skills on the Mesh's registry
//  3. Running conversational turns (RunTurn), direct skill invocations
//     (RunSkill) or multi-goal tasks (RunTask)
//
// The façade delegates the reasoning loop to agent.Orchestrator while keeping
// setup ergonomics concise. All defaults are safe for local development; the
// redis session backend and a real model provider are supplied via config.
package skillmesh

import (
	"context"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/skillmesh/agent"
	"github.com/hupe1980/skillmesh/config"
	"github.com/hupe1980/skillmesh/core"
	"github.com/hupe1980/skillmesh/logging"
	"github.com/hupe1980/skillmesh/memory"
	"github.com/hupe1980/skillmesh/memory/redisstore"
	"github.com/hupe1980/skillmesh/model"
	"github.com/hupe1980/skillmesh/model/anthropic"
	"github.com/hupe1980/skillmesh/model/openai"
	"github.com/hupe1980/skillmesh/skill"
)

// Options configure the Mesh beyond what config.Config carries.
type Options struct {
	// Model overrides the provider selected by config. Required when the
	// config names the scripted provider.
	Model model.Model
	// Confirmation supplies human approval for gated tools. Defaults to
	// denying every request.
	Confirmation agent.ConfirmationProvider
	// SessionStore overrides the backend selected by config.
	SessionStore memory.SessionStore
	// LongTerm overrides the default in-process semantic store.
	LongTerm memory.LongTermStore
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the orchestrator and its
// services.
type Mesh struct {
	cfg          config.Config
	registry     *skill.Registry
	orchestrator *agent.Orchestrator
	longTerm     memory.LongTermStore
	mdl          model.Model
	opts         Options
}

// New creates a Mesh from a validated configuration. Any unset service is
// initialized with a local in-process implementation.
func New(cfg config.Config, optFns ...func(o *Options)) (*Mesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{
		Confirmation: agent.DenyAll{},
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	mdl, err := buildModel(cfg, opts)
	if err != nil {
		return nil, err
	}

	registry, err := skill.NewRegistry(func(o *skill.RegistryOptions) {
		o.Policy = cfg.Skills
	})
	if err != nil {
		return nil, err
	}

	sessions := opts.SessionStore
	if sessions == nil {
		sessions, err = buildSessionStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	longTerm := opts.LongTerm
	if longTerm == nil {
		longTerm, err = buildLongTerm(cfg, mdl)
		if err != nil {
			return nil, err
		}
	}

	orch := agent.New(mdl, registry, func(o *agent.Options) {
		o.Instructions = cfg.Agent.Instructions
		o.MaxSteps = cfg.Agent.MaxSteps
		o.SkillTimeout = cfg.Agent.SkillTimeout
		o.RequestTimeout = cfg.Model.RequestTimeout
		o.MaxRetries = cfg.Model.MaxRetries
		o.RetryBaseDelay = cfg.Model.RetryBaseDelay
		o.TopK = cfg.Memory.TopK
		o.ShortTermBudget = cfg.ShortTermBudget()
		o.SessionStore = sessions
		o.LongTerm = longTerm
		o.Confirmation = opts.Confirmation
		o.Logger = opts.Logger
	})

	return &Mesh{
		cfg:          cfg,
		registry:     registry,
		orchestrator: orch,
		longTerm:     longTerm,
		mdl:          mdl,
		opts:         opts,
	}, nil
}

func buildModel(cfg config.Config, opts Options) (model.Model, error) {
	if opts.Model != nil {
		return opts.Model, nil
	}
	switch cfg.Model.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxCompletionTokens = int64(cfg.Model.MaxTokens)
			o.APIKey = cfg.Model.APIKey
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxTokens = int64(cfg.Model.MaxTokens)
			o.APIKey = cfg.Model.APIKey
		}), nil
	default:
		return nil, core.NewConfigurationError("unknown model provider %q (supply Options.Model for custom providers)", cfg.Model.Provider)
	}
}

func buildSessionStore(cfg config.Config) (memory.SessionStore, error) {
	switch cfg.Memory.SessionBackend {
	case "", "memory":
		return memory.NewInMemorySessionStore(), nil
	case "redis":
		return redisstore.NewFromAddr(cfg.Memory.RedisAddr), nil
	default:
		return nil, core.NewConfigurationError("unknown session backend %q", cfg.Memory.SessionBackend)
	}
}

func buildLongTerm(cfg config.Config, mdl model.Model) (memory.LongTermStore, error) {
	var embedder memory.Embedder
	if om, ok := mdl.(*openai.Model); ok {
		embedder = openai.NewEmbedder(om.Client())
	} else {
		embedder = memory.NewHashEmbedder(0)
	}
	return memory.NewSemanticStore(embedder, func(o *memory.SemanticStoreOptions) {
		o.ChunkSize = cfg.Memory.ChunkSize
		o.ChunkOverlap = cfg.Memory.ChunkOverlap
	})
}

// Registry exposes the skill registry for registration and policy toggles.
func (m *Mesh) Registry() *skill.Registry { return m.registry }

// LongTerm exposes the knowledge store for explicit writes.
func (m *Mesh) LongTerm() memory.LongTermStore { return m.longTerm }

// RegisterSkill adds a skill to the registry.
func (m *Mesh) RegisterSkill(s skill.Skill) error { return m.registry.Register(s) }

// RunTurn processes one user turn in the given session. When stream is
// non-nil it receives assistant content deltas as they arrive.
func (m *Mesh) RunTurn(ctx context.Context, sessionID, userText string, stream agent.StreamFunc) (string, error) {
	return m.orchestrator.RunTurn(ctx, sessionID, userText, stream)
}

// Cancel aborts the session's in-flight turn, if any.
func (m *Mesh) Cancel(sessionID string) { m.orchestrator.Cancel(sessionID) }

// Close releases the in-process state of a session. The durable session log
// is kept; use it for sessions that are finished but may be resumed later.
func (m *Mesh) Close(sessionID string) { m.orchestrator.Close(sessionID) }

// Transcript returns the session's persisted turn log.
func (m *Mesh) Transcript(ctx context.Context, sessionID string) ([]core.Turn, error) {
	return m.orchestrator.Transcript(ctx, sessionID)
}

// RunSkill invokes a tool directly, bypassing the model but honoring the
// confirmation policy and the skill timeout.
func (m *Mesh) RunSkill(ctx context.Context, toolName string, args map[string]any) (any, error) {
	return m.orchestrator.RunSkill(ctx, toolName, args)
}

// RunTask decomposes a multi-goal task across isolated sub-agents and
// synthesizes one combined answer.
func (m *Mesh) RunTask(ctx context.Context, parallel bool, subs []agent.SubTask) (*agent.TaskResult, error) {
	coord := agent.NewCoordinator(m.mdl, m.registry, func(o *agent.CoordinatorOptions) {
		o.Parallel = parallel
		o.LongTerm = m.longTerm
		o.Logger = m.opts.Logger
		o.Agent = []func(o *agent.Options){func(o *agent.Options) {
			o.Instructions = m.cfg.Agent.Instructions
			o.MaxSteps = m.cfg.Agent.MaxSteps
			o.SkillTimeout = m.cfg.Agent.SkillTimeout
			o.RequestTimeout = m.cfg.Model.RequestTimeout
			o.MaxRetries = m.cfg.Model.MaxRetries
			o.RetryBaseDelay = m.cfg.Model.RetryBaseDelay
			o.TopK = m.cfg.Memory.TopK
			o.ShortTermBudget = m.cfg.ShortTermBudget()
			o.Confirmation = m.opts.Confirmation
		}}
	})
	return coord.RunTask(ctx, subs)
}

// Ping probes the configured model backend.
func (m *Mesh) Ping(ctx context.Context) error { return m.orchestrator.Ping(ctx) }
