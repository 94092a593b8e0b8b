package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnConstructors(t *testing.T) {
	t.Run("user turn", func(t *testing.T) {
		turn := NewUserTurn("hello there")
		assert.Equal(t, RoleUser, turn.Role)
		assert.Equal(t, "hello there", turn.Content)
		assert.NotEmpty(t, turn.ID)
		assert.Positive(t, turn.TokenCount)
		assert.False(t, turn.IsFinal())
	})

	t.Run("assistant turn without calls is final", func(t *testing.T) {
		turn := NewAssistantTurn("done", nil)
		assert.True(t, turn.IsFinal())
		assert.Nil(t, turn.GetToolCalls())
	})

	t.Run("assistant turn with calls is not final", func(t *testing.T) {
		calls := []ToolCallRequest{
			{ID: NewID(), Name: "first", Arguments: `{"a":1}`},
			{ID: NewID(), Name: "second"},
		}
		turn := NewAssistantTurn("", calls)
		assert.False(t, turn.IsFinal())
		got := turn.GetToolCalls()
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Name)
		assert.Equal(t, "second", got[1].Name)
	})

	t.Run("partial assistant turn is not final", func(t *testing.T) {
		turn := NewAssistantTurn("interru", nil)
		turn.Partial = true
		assert.False(t, turn.IsFinal())
	})

	t.Run("tool result turn", func(t *testing.T) {
		turn := NewToolResultTurn(ToolResult{CallID: "c1", Name: "lookup", Content: 42})
		require.NotNil(t, turn.ToolResult)
		assert.Equal(t, RoleTool, turn.Role)
		assert.False(t, turn.ToolResult.Failed())
		assert.Nil(t, turn.GetToolCalls())
	})

	t.Run("failed tool result", func(t *testing.T) {
		res := ToolResult{CallID: "c1", Name: "lookup", Error: "boom", Kind: "execution"}
		assert.True(t, res.Failed())
	})
}

func TestTranscriptAppendOrder(t *testing.T) {
	tr := NewTranscript("s1")
	tr.Append(NewUserTurn("one"))
	tr.Append(NewAssistantTurn("two", nil))
	tr.Append(NewUserTurn("three"))

	turns := tr.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "one", turns[0].Content)
	assert.Equal(t, "two", turns[1].Content)
	assert.Equal(t, "three", turns[2].Content)
}

func TestTranscriptConcurrentAppend(t *testing.T) {
	tr := NewTranscript("s1")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Append(NewUserTurn("x"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, tr.Len())
}

func TestTranscriptTurnsIsDefensiveCopy(t *testing.T) {
	tr := NewTranscript("s1")
	tr.Append(NewUserTurn("original"))

	turns := tr.Turns()
	turns[0].Content = "mutated"

	assert.Equal(t, "original", tr.Turns()[0].Content)
}

func TestTranscriptLastUserTurn(t *testing.T) {
	tr := NewTranscript("s1")
	_, ok := tr.LastUserTurn()
	assert.False(t, ok)

	tr.Append(NewUserTurn("first"))
	tr.Append(NewAssistantTurn("answer", nil))
	tr.Append(NewUserTurn("second"))
	tr.Append(NewAssistantTurn("answer two", nil))

	last, ok := tr.LastUserTurn()
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "plain", Stringify("plain"))
	assert.Equal(t, `{"a":1}`, Stringify(map[string]int{"a": 1}))
	assert.Equal(t, "", Stringify(nil))
}
