package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/skillmesh/core"
)

func drain(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()
	var responses []Response
	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			responses = append(responses, r)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			return responses, err
		}
	}
	return responses, nil
}

func TestScriptedModelStreamsDeltasInOrder(t *testing.T) {
	m := NewScriptedModel().AddText("abc")

	respCh, errCh := m.Generate(context.Background(), Request{Stream: true})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	require.Len(t, responses, 4)
	assert.Equal(t, "a", responses[0].Delta)
	assert.Equal(t, "b", responses[1].Delta)
	assert.Equal(t, "c", responses[2].Delta)
	final := responses[3]
	assert.False(t, final.Partial)
	assert.Equal(t, "abc", final.Content)
}

func TestScriptedModelToolCallStep(t *testing.T) {
	call := core.ToolCallRequest{ID: "c1", Name: "lookup"}
	m := NewScriptedModel().AddToolCalls(call)

	respCh, errCh := m.Generate(context.Background(), Request{})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	require.Len(t, responses, 1)
	assert.Equal(t, "tool_calls", responses[0].FinishReason)
	require.Len(t, responses[0].ToolCalls, 1)
	assert.Equal(t, "lookup", responses[0].ToolCalls[0].Name)
}

func TestScriptedModelExhaustion(t *testing.T) {
	m := NewScriptedModel().AddText("only one")

	respCh, errCh := m.Generate(context.Background(), Request{})
	_, _ = drain(t, respCh, errCh)

	respCh, errCh = m.Generate(context.Background(), Request{})
	_, err := drain(t, respCh, errCh)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, KindMalformed, provErr.Kind)
}

func TestScriptedModelRepeat(t *testing.T) {
	m := NewScriptedModel().AddText("again")
	m.Repeat = true

	for i := 0; i < 5; i++ {
		respCh, errCh := m.Generate(context.Background(), Request{})
		responses, err := drain(t, respCh, errCh)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, "again", responses[0].Content)
	}
	assert.Equal(t, 5, m.Calls())
}
