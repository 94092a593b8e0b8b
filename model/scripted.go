package model

import (
	"context"
	"sync"

	"github.com/hupe1980/skillmesh/core"
)

// Step is one canned completion served by a ScriptedModel.
type Step struct {
	Content   string
	ToolCalls []core.ToolCallRequest
	Err       error
}

// ScriptedModel is an in-memory Model that serves a fixed sequence of steps.
// It backs tests and offline examples: each Generate call consumes the next
// step; with Repeat set the last step is served forever, which makes step
// limit scenarios trivial to provoke. When streaming is requested the content
// is emitted as per-rune deltas before the final response.
type ScriptedModel struct {
	mu     sync.Mutex
	steps  []Step
	next   int
	Repeat bool
}

// NewScriptedModel constructs an empty scripted model.
func NewScriptedModel() *ScriptedModel { return &ScriptedModel{} }

// AddText queues a final text answer.
func (m *ScriptedModel) AddText(content string) *ScriptedModel {
	return m.add(Step{Content: content})
}

// AddToolCalls queues an assistant step requesting the given tool calls.
func (m *ScriptedModel) AddToolCalls(calls ...core.ToolCallRequest) *ScriptedModel {
	return m.add(Step{ToolCalls: calls})
}

// AddError queues a failing step.
func (m *ScriptedModel) AddError(err error) *ScriptedModel {
	return m.add(Step{Err: err})
}

func (m *ScriptedModel) add(s Step) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, s)
	return m
}

// Calls reports how many Generate invocations have been consumed.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

func (m *ScriptedModel) take() (Step, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next >= len(m.steps) {
		if m.Repeat && len(m.steps) > 0 {
			m.next++
			return m.steps[len(m.steps)-1], true
		}
		return Step{}, false
	}
	s := m.steps[m.next]
	m.next++
	return s, true
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		step, ok := m.take()
		if !ok {
			errCh <- NewProviderError("scripted", KindMalformed, errScriptExhausted)
			return
		}
		if step.Err != nil {
			errCh <- step.Err
			return
		}
		if req.Stream {
			for _, r := range step.Content {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- Response{Partial: true, Delta: string(r)}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case out <- Response{
			Content:      step.Content,
			ToolCalls:    step.ToolCalls,
			FinishReason: finishReason(step),
		}:
		}
	}()

	return out, errCh
}

// Ping implements Model; the scripted backend is always reachable.
func (m *ScriptedModel) Ping(context.Context) error { return nil }

// Info implements Model.
func (m *ScriptedModel) Info() Info {
	return Info{Name: "scripted", Provider: "scripted", SupportsTools: true}
}

func finishReason(s Step) string {
	if len(s.ToolCalls) > 0 {
		return "tool_calls"
	}
	return "stop"
}

var errScriptExhausted = &scriptExhaustedError{}

type scriptExhaustedError struct{}

func (*scriptExhaustedError) Error() string { return "scripted model has no steps left" }
