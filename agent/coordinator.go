package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/skillmesh/core"
	"github.com/hupe1980/skillmesh/logging"
	"github.com/hupe1980/skillmesh/memory"
	"github.com/hupe1980/skillmesh/model"
	"github.com/hupe1980/skillmesh/skill"
)

// SubTask is one named sub-goal of a coordinated task.
type SubTask struct {
	Name string
	Goal string
}

// SubResult is the outcome of one sub-goal. A failed sub-goal carries an
// error placeholder as its Answer so the synthesis step can reason about the
// gap instead of silently dropping it.
type SubResult struct {
	Name   string
	Answer string
	Err    error
}

// TaskResult bundles the per-sub-goal outcomes with the synthesized answer.
type TaskResult struct {
	SubResults []SubResult
	Answer     string
}

// CoordinatorOptions configure a Coordinator.
type CoordinatorOptions struct {
	// Parallel runs sub-goals concurrently. A sub-goal failure never aborts
	// its siblings in either mode.
	Parallel bool
	// Orchestrator options applied to every sub-agent.
	Agent []func(o *Options)
	// LongTerm is shared by all sub-agents for knowledge retrieval. Session
	// history is never shared; each sub-agent gets an isolated store.
	LongTerm memory.LongTermStore
	Logger   logging.Logger
}

// Coordinator fans a multi-goal task out to isolated sub-agents and
// synthesizes their answers into one. Each sub-agent is a full Orchestrator
// with its own session history so sub-goals cannot contaminate each other's
// context windows.
type Coordinator struct {
	model    model.Model
	registry *skill.Registry
	opts     CoordinatorOptions
}

// NewCoordinator constructs a Coordinator sharing one model and registry
// across all sub-agents.
func NewCoordinator(m model.Model, registry *skill.Registry, optFns ...func(o *CoordinatorOptions)) *Coordinator {
	opts := CoordinatorOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Coordinator{model: m, registry: registry, opts: opts}
}

// RunTask executes every sub-goal and synthesizes a combined answer with one
// final model call. Sub-results keep the order of the input regardless of
// completion order.
func (c *Coordinator) RunTask(ctx context.Context, subs []SubTask) (*TaskResult, error) {
	if len(subs) == 0 {
		return nil, core.NewConfigurationError("a task needs at least one sub-goal")
	}

	results := make([]SubResult, len(subs))
	if c.opts.Parallel {
		var wg sync.WaitGroup
		for i, sub := range subs {
			wg.Add(1)
			go func(i int, sub SubTask) {
				defer wg.Done()
				results[i] = c.runSub(ctx, sub)
			}(i, sub)
		}
		wg.Wait()
	} else {
		for i, sub := range subs {
			results[i] = c.runSub(ctx, sub)
		}
	}

	answer, err := c.synthesize(ctx, results)
	if err != nil {
		return &TaskResult{SubResults: results}, err
	}
	return &TaskResult{SubResults: results, Answer: answer}, nil
}

// runSub runs one sub-goal on a fresh Orchestrator with an isolated session
// store. Failures are captured in the result, never propagated.
func (c *Coordinator) runSub(ctx context.Context, sub SubTask) SubResult {
	optFns := append([]func(o *Options){
		func(o *Options) {
			o.SessionStore = memory.NewInMemorySessionStore()
			o.LongTerm = c.opts.LongTerm
			o.Logger = c.opts.Logger
		},
	}, c.opts.Agent...)

	worker := New(c.model, c.registry, optFns...)
	answer, err := worker.RunTurn(ctx, "sub:"+sub.Name, sub.Goal, nil)
	if err != nil {
		c.opts.Logger.Warn("coordinator.sub.failed", "sub", sub.Name, "error", err.Error())
		return SubResult{Name: sub.Name, Answer: "ERROR: " + err.Error(), Err: err}
	}
	c.opts.Logger.Info("coordinator.sub.done", "sub", sub.Name)
	return SubResult{Name: sub.Name, Answer: answer}
}

// synthesize asks the model for one coherent answer over all sub-results.
func (c *Coordinator) synthesize(ctx context.Context, results []SubResult) (string, error) {
	var b strings.Builder
	b.WriteString("Combine the following sub-task results into one coherent answer. " +
		"Where a sub-task failed, acknowledge the gap.\n")
	for _, r := range results {
		fmt.Fprintf(&b, "\n## %s\n%s\n", r.Name, r.Answer)
	}

	req := model.Request{
		Instructions: "You are a synthesis assistant that merges partial results into a final answer.",
		Turns:        []core.Turn{core.NewUserTurn(b.String())},
	}
	respCh, errCh := c.model.Generate(ctx, req)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				continue
			}
			return resp.Content, nil
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			return "", fmt.Errorf("synthesize task: %w", err)
		}
	}
	return "", model.NewProviderError(c.model.Info().Provider, model.KindMalformed, errNoFinalResponse)
}
