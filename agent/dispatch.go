package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/skillmesh/core"
	"github.com/hupe1980/skillmesh/skill"
)

// dispatch executes all tool calls of one assistant turn concurrently and
// persists their result turns strictly in request order, so the transcript
// always pairs calls and results deterministically regardless of handler
// completion order.
func (o *Orchestrator) dispatch(ctx context.Context, sessionID string, st *sessionState, calls []core.ToolCallRequest) error {
	st.setState(StateDispatching)

	results := make([]core.ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call core.ToolCallRequest) {
			defer wg.Done()
			results[i] = o.dispatchOne(ctx, call)
		}(i, call)
	}
	wg.Wait()

	for _, res := range results {
		if res.Failed() {
			o.opts.Logger.Warn("agent.tool.failed",
				"session", sessionID,
				"tool", res.Name,
				"kind", res.Kind,
				"error", res.Error,
			)
		}
		if err := o.persist(ctx, sessionID, st, core.NewToolResultTurn(res)); err != nil {
			return err
		}
	}
	return nil
}

// dispatchOne resolves, confirms and executes a single tool call. Every
// failure mode is folded into the returned ToolResult so the model sees it as
// conversational data; nothing here aborts the turn.
func (o *Orchestrator) dispatchOne(ctx context.Context, call core.ToolCallRequest) core.ToolResult {
	res := core.ToolResult{CallID: call.ID, Name: call.Name}

	sk, tool, err := o.registry.Resolve(call.Name)
	if err != nil {
		res.Error = err.Error()
		res.Kind = skill.KindUnknownTool
		return res
	}

	if o.registry.IsConfirmationRequired(call.Name) {
		approved, err := o.opts.Confirmation.RequestConfirmation(ctx, call)
		if err != nil {
			res.Error = "confirmation failed: " + err.Error()
			res.Kind = kindFor(ctx, err)
			return res
		}
		if !approved {
			res.Error = "declined by user"
			res.Kind = skill.KindDeclined
			return res
		}
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			res.Error = "malformed tool arguments: " + err.Error()
			res.Kind = skill.KindValidation
			return res
		}
	}

	callCtx := ctx
	if o.opts.SkillTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.opts.SkillTimeout)
		defer cancel()
	}

	type outcome struct {
		content any
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		content, err := tool.Call(callCtx, args)
		done <- outcome{content: content, err: err}
	}()

	start := time.Now()
	select {
	case <-callCtx.Done():
		// The handler goroutine is abandoned; its eventual result is
		// discarded via the buffered channel.
		if ctx.Err() != nil {
			res.Error = "cancelled"
			res.Kind = skill.KindCancelled
		} else {
			res.Error = "timed out after " + o.opts.SkillTimeout.String()
			res.Kind = skill.KindTimeout
		}
		return res
	case out := <-done:
		o.opts.Logger.Debug("agent.tool.completed",
			"skill", sk.Name(),
			"tool", call.Name,
			"duration_ms", time.Since(start).Milliseconds(),
			"ok", out.err == nil,
		)
		if out.err != nil {
			var toolErr *skill.ToolError
			if errors.As(out.err, &toolErr) {
				res.Error = toolErr.Message
				res.Kind = toolErr.Kind
			} else {
				res.Error = out.err.Error()
				res.Kind = skill.KindExecution
			}
			return res
		}
		res.Content = out.content
		return res
	}
}

// kindFor classifies a confirmation failure by whether the turn itself was
// cancelled while waiting.
func kindFor(ctx context.Context, err error) string {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return skill.KindCancelled
	}
	return skill.KindExecution
}
