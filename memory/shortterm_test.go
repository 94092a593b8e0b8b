package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/skillmesh/core"
)

// turnWithTokens builds a turn whose estimated token count is exactly n.
func turnWithTokens(role core.Role, n int) core.Turn {
	content := strings.Repeat("a", n*4)
	if role == core.RoleUser {
		return core.NewUserTurn(content)
	}
	return core.NewAssistantTurn(content, nil)
}

func TestShortTermAppendOrder(t *testing.T) {
	b := NewShortTermBuffer(1000)
	b.Append(core.NewUserTurn("one"))
	b.Append(core.NewAssistantTurn("two", nil))
	b.Append(core.NewUserTurn("three"))

	turns := b.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "one", turns[0].Content)
	assert.Equal(t, "three", turns[2].Content)
}

func TestShortTermEvictsOldestFirst(t *testing.T) {
	b := NewShortTermBuffer(25)
	b.Append(turnWithTokens(core.RoleUser, 10))      // "old"
	b.Append(turnWithTokens(core.RoleAssistant, 10)) // "mid"
	b.Append(turnWithTokens(core.RoleUser, 10))      // newest user, 30 total

	turns := b.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleAssistant, turns[0].Role)
	assert.Equal(t, core.RoleUser, turns[1].Role)
	assert.LessOrEqual(t, b.TokenCount(), 25)
}

func TestShortTermNeverEvictsMostRecentUserTurn(t *testing.T) {
	b := NewShortTermBuffer(5)
	// The single user turn exceeds the budget on its own.
	big := turnWithTokens(core.RoleUser, 50)
	b.Append(big)

	turns := b.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, big.ID, turns[0].ID)

	// Eviction shrinks around the user turn but never drops it.
	b2 := NewShortTermBuffer(20)
	b2.Append(turnWithTokens(core.RoleAssistant, 10))
	user := turnWithTokens(core.RoleUser, 15)
	b2.Append(user)

	turns = b2.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, user.ID, turns[0].ID)
}

func TestShortTermZeroBudgetDisablesEviction(t *testing.T) {
	b := NewShortTermBuffer(0)
	for i := 0; i < 100; i++ {
		b.Append(turnWithTokens(core.RoleAssistant, 100))
	}
	assert.Equal(t, 100, b.Len())
}

func TestShortTermEvictionKeepsNewestTail(t *testing.T) {
	b := NewShortTermBuffer(30)
	b.Append(turnWithTokens(core.RoleUser, 10))
	b.Append(turnWithTokens(core.RoleAssistant, 10))
	b.Append(turnWithTokens(core.RoleUser, 10))
	newest := turnWithTokens(core.RoleAssistant, 10)
	b.Append(newest)

	turns := b.Turns()
	require.NotEmpty(t, turns)
	assert.Equal(t, newest.ID, turns[len(turns)-1].ID)
	assert.LessOrEqual(t, b.TokenCount(), 30)
}
