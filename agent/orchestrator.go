package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/skillmesh/core"
	"github.com/hupe1980/skillmesh/logging"
	"github.com/hupe1980/skillmesh/memory"
	"github.com/hupe1980/skillmesh/model"
	"github.com/hupe1980/skillmesh/skill"
)

// StreamFunc receives assistant content deltas in arrival order while a turn
// is streaming.
type StreamFunc func(delta string)

// Options configure an Orchestrator.
type Options struct {
	// Instructions is the base system prompt prepended to every request.
	Instructions string
	// MaxSteps bounds loop iterations per user turn.
	MaxSteps int
	// SkillTimeout bounds each individual tool call.
	SkillTimeout time.Duration
	// RequestTimeout bounds each individual model call attempt.
	RequestTimeout time.Duration
	// MaxRetries bounds retries of transient connectivity failures.
	MaxRetries int
	// RetryBaseDelay is the initial backoff delay, doubled per attempt.
	RetryBaseDelay time.Duration
	// TopK is the number of long-term entries retrieved per user turn.
	TopK int
	// ShortTermBudget is the short-term eviction threshold in tokens.
	ShortTermBudget int

	SessionStore memory.SessionStore
	LongTerm     memory.LongTermStore
	Confirmation ConfirmationProvider
	Logger       logging.Logger
}

// Orchestrator runs the tool-calling loop. A single Orchestrator serves many
// sessions concurrently, but turns of one session are processed strictly
// sequentially; that ordering backbone is what keeps the memory tiers
// consistent without cross-session locking.
type Orchestrator struct {
	model    model.Model
	registry *skill.Registry
	opts     Options

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// sessionState is the per-session mutable state. Its mutex serializes turns;
// cancel is the in-flight turn's cancellation hook. The loop state has its
// own lock because State() must be pollable while a turn holds mu.
type sessionState struct {
	mu         sync.Mutex
	short      *memory.ShortTermBuffer
	resumeNote string

	stateMu sync.Mutex
	state   State

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func (st *sessionState) setState(s State) {
	st.stateMu.Lock()
	st.state = s
	st.stateMu.Unlock()
}

func (st *sessionState) currentState() State {
	st.stateMu.Lock()
	defer st.stateMu.Unlock()
	return st.state
}

func (st *sessionState) setCancel(fn context.CancelFunc) {
	st.cancelMu.Lock()
	st.cancel = fn
	st.cancelMu.Unlock()
}

// New constructs an Orchestrator for the given model and registry.
func New(m model.Model, registry *skill.Registry, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxSteps:        10,
		SkillTimeout:    30 * time.Second,
		MaxRetries:      2,
		RetryBaseDelay:  500 * time.Millisecond,
		TopK:            4,
		SessionStore:    memory.NewInMemorySessionStore(),
		Confirmation:    DenyAll{},
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		model:    m,
		registry: registry,
		opts:     opts,
		sessions: make(map[string]*sessionState),
	}
}

// RunTurn processes one user turn to completion: it assembles the context
// window, calls the model, dispatches any requested tool calls and repeats
// until a final answer or the step limit. When stream is non-nil, assistant
// content deltas are forwarded in arrival order; cancelling ctx (or calling
// Cancel) stops forwarding and persists the in-flight turn as partial.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID, userText string, stream StreamFunc) (string, error) {
	st, err := o.session(ctx, sessionID)
	if err != nil {
		return "", err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	st.setCancel(cancel)
	defer st.setCancel(nil)

	if err := o.persist(ctx, sessionID, st, core.NewUserTurn(userText)); err != nil {
		st.setState(StateFailed)
		return "", err
	}

	contextBlock := o.retrieveContext(ctx, userText)

	for step := 1; step <= o.opts.MaxSteps; step++ {
		st.setState(StateAwaitingLLM)
		content, calls, partial, err := o.complete(ctx, st, contextBlock, stream)
		if err != nil {
			if partial {
				// A cancelled stream persists whatever arrived, marked
				// partial, and is never retried.
				turn := core.NewAssistantTurn(content, nil)
				turn.Partial = true
				if perr := o.persist(ctx, sessionID, st, turn); perr != nil {
					o.opts.Logger.Warn("agent.turn.partial_persist_failed",
						"session", sessionID,
						"error", perr.Error(),
					)
				}
			}
			st.setState(StateFailed)
			return content, err
		}

		if err := o.persist(ctx, sessionID, st, core.NewAssistantTurn(content, calls)); err != nil {
			st.setState(StateFailed)
			return "", err
		}

		if len(calls) == 0 {
			st.setState(StateDone)
			o.opts.Logger.Info("agent.turn.done", "session", sessionID, "steps", step)
			return content, nil
		}

		st.setState(StateToolCallPending)
		if err := o.dispatch(ctx, sessionID, st, calls); err != nil {
			st.setState(StateFailed)
			return "", err
		}
		if err := ctx.Err(); err != nil {
			st.setState(StateFailed)
			return "", err
		}
	}

	st.setState(StateFailed)
	o.opts.Logger.Warn("agent.turn.step_limit", "session", sessionID, "max_steps", o.opts.MaxSteps)
	return "", &core.StepLimitError{Steps: o.opts.MaxSteps}
}

// Cancel aborts the session's in-flight turn, if any. The in-flight turn is
// persisted as partial and dispatched-but-unfinished tool calls are abandoned
// without waiting for them.
func (o *Orchestrator) Cancel(sessionID string) {
	o.mu.Lock()
	st, ok := o.sessions[sessionID]
	o.mu.Unlock()
	if !ok {
		return
	}
	st.cancelMu.Lock()
	if st.cancel != nil {
		st.cancel()
	}
	st.cancelMu.Unlock()
}

// Transcript returns the session's persisted turn log for export.
func (o *Orchestrator) Transcript(ctx context.Context, sessionID string) ([]core.Turn, error) {
	return o.opts.SessionStore.Turns(ctx, sessionID)
}

// State reports the session's current loop state. Safe to poll while a turn
// is running.
func (o *Orchestrator) State(sessionID string) State {
	o.mu.Lock()
	st, ok := o.sessions[sessionID]
	o.mu.Unlock()
	if !ok {
		return StateIdle
	}
	return st.currentState()
}

// Close releases the session's in-process state: the in-flight turn (if any)
// is cancelled and the short-term buffer is dropped. The durable session log
// is untouched, so a later RunTurn for the same id resumes from the store.
func (o *Orchestrator) Close(sessionID string) {
	o.Cancel(sessionID)
	o.mu.Lock()
	delete(o.sessions, sessionID)
	o.mu.Unlock()
}

// RunSkill executes a tool directly without a model round-trip, still
// honoring the confirmation policy and the per-skill timeout. Useful for
// direct CLI commands.
func (o *Orchestrator) RunSkill(ctx context.Context, toolName string, args map[string]any) (any, error) {
	call := core.ToolCallRequest{ID: core.NewID(), Name: toolName, Arguments: core.Stringify(args)}
	res := o.dispatchOne(ctx, call)
	if res.Failed() {
		return nil, skill.NewToolError(toolName, res.Error, res.Kind)
	}
	return res.Content, nil
}

// Ping probes the model backend.
func (o *Orchestrator) Ping(ctx context.Context) error {
	if o.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.RequestTimeout)
		defer cancel()
	}
	return o.model.Ping(ctx)
}

// session returns the per-session state, creating and resuming it from the
// session store on first use.
func (o *Orchestrator) session(ctx context.Context, sessionID string) (*sessionState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.sessions[sessionID]; ok {
		return st, nil
	}

	st := &sessionState{
		short: memory.NewShortTermBuffer(o.opts.ShortTermBudget),
		state: StateIdle,
	}
	turns, err := o.opts.SessionStore.Turns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", sessionID, err)
	}
	for _, turn := range turns {
		st.short.Append(turn)
	}
	if len(turns) > 0 {
		st.resumeNote = resumeSummary(turns)
		o.opts.Logger.Info("agent.session.resumed", "session", sessionID, "turns", len(turns))
	}
	o.sessions[sessionID] = st
	return st, nil
}

// resumeSummary condenses a restored transcript into a short note appended to
// the instructions, so the model knows the conversation predates this
// process.
func resumeSummary(turns []core.Turn) string {
	lastGoal := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == core.RoleUser {
			lastGoal = turns[i].Content
			break
		}
	}
	note := fmt.Sprintf("Resumed session with %d prior turns.", len(turns))
	if lastGoal != "" {
		note += " Last user goal: " + lastGoal
	}
	return note
}

// retrieveContext fetches top-k long-term entries relevant to the user text.
// Retrieval failures degrade to an empty context block rather than failing
// the turn.
func (o *Orchestrator) retrieveContext(ctx context.Context, userText string) string {
	if o.opts.LongTerm == nil || o.opts.TopK <= 0 {
		return ""
	}
	entries, err := o.opts.LongTerm.Search(ctx, userText, o.opts.TopK)
	if err != nil {
		o.opts.Logger.Warn("agent.memory.retrieval_failed", "error", err.Error())
		return ""
	}
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[Available context]\n")
	for _, e := range entries {
		b.WriteString("- ")
		b.WriteString(e.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func (o *Orchestrator) instructionsFor(st *sessionState, contextBlock string) string {
	parts := make([]string, 0, 3)
	if o.opts.Instructions != "" {
		parts = append(parts, o.opts.Instructions)
	}
	if st.resumeNote != "" {
		parts = append(parts, st.resumeNote)
	}
	if contextBlock != "" {
		parts = append(parts, contextBlock)
	}
	return strings.Join(parts, "\n\n")
}

func (o *Orchestrator) toolDefinitions() []model.ToolDefinition {
	tools := o.registry.EnabledTools()
	if len(tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return defs
}

// complete performs one model call with bounded-backoff retry of transient
// connectivity failures. Tool and confirmation failures never reach this
// path; they are folded into the conversation as data. The partial return is
// true when deltas were already forwarded to the caller, in which case the
// call is never retried (a replay would duplicate output) and the
// accumulated content is persisted as a partial turn.
func (o *Orchestrator) complete(ctx context.Context, st *sessionState, contextBlock string, stream StreamFunc) (string, []core.ToolCallRequest, bool, error) {
	req := model.Request{
		Instructions: o.instructionsFor(st, contextBlock),
		Turns:        st.short.Turns(),
		Tools:        o.toolDefinitions(),
		Stream:       stream != nil,
	}

	for attempt := 0; ; attempt++ {
		start := time.Now()
		content, calls, streamed, err := o.completeOnce(ctx, req, stream)
		if err == nil {
			o.opts.Logger.Debug("agent.llm.completed",
				"duration_ms", time.Since(start).Milliseconds(),
				"tool_calls", len(calls),
			)
			return content, calls, false, nil
		}
		if ctx.Err() != nil {
			return content, nil, streamed, ctx.Err()
		}
		if streamed || !retryable(err) || attempt >= o.opts.MaxRetries {
			return "", nil, false, err
		}

		delay := o.opts.RetryBaseDelay << attempt
		o.opts.Logger.Warn("agent.llm.retry",
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"error", err.Error(),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", nil, false, ctx.Err()
		case <-timer.C:
		}
	}
}

// retryable reports whether a model call failure is a transient connectivity
// condition. Malformed responses and rate limits surface immediately.
func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var provErr *model.ProviderError
	return errors.As(err, &provErr) && provErr.Retryable()
}

// completeOnce drives a single Generate call, forwarding deltas and
// accumulating content so a cancelled stream can be persisted as-is.
func (o *Orchestrator) completeOnce(ctx context.Context, req model.Request, stream StreamFunc) (string, []core.ToolCallRequest, bool, error) {
	callCtx := ctx
	if o.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.opts.RequestTimeout)
		defer cancel()
	}

	respCh, errCh := o.model.Generate(callCtx, req)

	var (
		acc      strings.Builder
		streamed bool
	)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return acc.String(), nil, streamed, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				acc.WriteString(resp.Delta)
				if stream != nil {
					stream(resp.Delta)
					streamed = true
				}
				continue
			}
			return resp.Content, resp.ToolCalls, streamed, nil
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			return acc.String(), nil, streamed, err
		}
	}
	return "", nil, streamed, model.NewProviderError(o.model.Info().Provider, model.KindMalformed, errNoFinalResponse)
}

var errNoFinalResponse = errors.New("model closed the stream without a final response")

// persist appends a turn to the short-term window and the durable session
// log. Persistence deliberately survives turn cancellation so partial turns
// land in the transcript exactly as delivered.
func (o *Orchestrator) persist(ctx context.Context, sessionID string, st *sessionState, turn core.Turn) error {
	st.short.Append(turn)
	if err := o.opts.SessionStore.Append(context.WithoutCancel(ctx), sessionID, turn); err != nil {
		return fmt.Errorf("persist turn: %w", err)
	}
	return nil
}
