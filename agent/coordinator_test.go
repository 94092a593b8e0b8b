package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/skillmesh/model"
	"github.com/hupe1980/skillmesh/skill"
)

func TestCoordinatorSequential(t *testing.T) {
	scripted := model.NewScriptedModel().
		AddText("first answer").
		AddText("second answer").
		AddText("combined answer")

	registry, err := skill.NewRegistry()
	require.NoError(t, err)

	c := NewCoordinator(scripted, registry)
	result, err := c.RunTask(context.Background(), []SubTask{
		{Name: "alpha", Goal: "do the first thing"},
		{Name: "beta", Goal: "do the second thing"},
	})
	require.NoError(t, err)

	require.Len(t, result.SubResults, 2)
	assert.Equal(t, "alpha", result.SubResults[0].Name)
	assert.Equal(t, "first answer", result.SubResults[0].Answer)
	assert.Equal(t, "beta", result.SubResults[1].Name)
	assert.Equal(t, "second answer", result.SubResults[1].Answer)
	assert.Equal(t, "combined answer", result.Answer)
	assert.Equal(t, 3, scripted.Calls())
}

func TestCoordinatorParallelPreservesOrder(t *testing.T) {
	// Every sub-goal gets the same canned answer so the assertion does not
	// depend on which goroutine wins the race to the model.
	scripted := model.NewScriptedModel().AddText("same answer")
	scripted.Repeat = true

	registry, err := skill.NewRegistry()
	require.NoError(t, err)

	c := NewCoordinator(scripted, registry, func(o *CoordinatorOptions) {
		o.Parallel = true
	})
	result, err := c.RunTask(context.Background(), []SubTask{
		{Name: "one", Goal: "goal one"},
		{Name: "two", Goal: "goal two"},
		{Name: "three", Goal: "goal three"},
	})
	require.NoError(t, err)

	require.Len(t, result.SubResults, 3)
	assert.Equal(t, "one", result.SubResults[0].Name)
	assert.Equal(t, "two", result.SubResults[1].Name)
	assert.Equal(t, "three", result.SubResults[2].Name)
	// 3 sub-goals plus one synthesis call.
	assert.Equal(t, 4, scripted.Calls())
}

func TestCoordinatorFailedSubGoalGetsPlaceholder(t *testing.T) {
	scripted := model.NewScriptedModel().
		AddText("good answer").
		AddError(model.NewProviderError("scripted", model.KindMalformed, errors.New("broken"))).
		AddText("synthesis despite failure")

	registry, err := skill.NewRegistry()
	require.NoError(t, err)

	c := NewCoordinator(scripted, registry)
	result, err := c.RunTask(context.Background(), []SubTask{
		{Name: "good", Goal: "works"},
		{Name: "bad", Goal: "fails"},
	})
	require.NoError(t, err)

	require.Len(t, result.SubResults, 2)
	assert.Equal(t, "good answer", result.SubResults[0].Answer)
	assert.NoError(t, result.SubResults[0].Err)

	assert.True(t, strings.HasPrefix(result.SubResults[1].Answer, "ERROR:"))
	assert.Error(t, result.SubResults[1].Err)

	// The synthesis step still runs and sees the placeholder.
	assert.Equal(t, "synthesis despite failure", result.Answer)
}

func TestCoordinatorIsolatedSessions(t *testing.T) {
	scripted := model.NewScriptedModel().AddText("answer")
	scripted.Repeat = true

	registry, err := skill.NewRegistry()
	require.NoError(t, err)

	rec := &recordingModel{Model: scripted}
	c := NewCoordinator(rec, registry)
	_, err = c.RunTask(context.Background(), []SubTask{
		{Name: "a", Goal: "goal a"},
		{Name: "b", Goal: "goal b"},
	})
	require.NoError(t, err)

	// Each sub-agent sees only its own goal: one user turn per request.
	reqs := rec.Requests()
	require.Len(t, reqs, 3)
	for _, req := range reqs[:2] {
		require.Len(t, req.Turns, 1)
	}
}

func TestCoordinatorEmptyTask(t *testing.T) {
	registry, err := skill.NewRegistry()
	require.NoError(t, err)

	c := NewCoordinator(model.NewScriptedModel(), registry)
	_, err = c.RunTask(context.Background(), nil)
	require.Error(t, err)
}

func TestCoordinatorSynthesisError(t *testing.T) {
	scripted := model.NewScriptedModel().
		AddText("only sub answer").
		AddError(model.NewProviderError("scripted", model.KindMalformed, errors.New("synthesis down")))

	registry, err := skill.NewRegistry()
	require.NoError(t, err)

	c := NewCoordinator(scripted, registry)
	result, err := c.RunTask(context.Background(), []SubTask{
		{Name: "solo", Goal: "the only goal"},
	})
	require.Error(t, err)
	// Sub-results are still returned so callers can salvage partial work.
	require.NotNil(t, result)
	require.Len(t, result.SubResults, 1)
	assert.Equal(t, "only sub answer", result.SubResults[0].Answer)
}
