package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/skillmesh/core"
)

func TestInMemorySessionStoreAppendAndTurns(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", core.NewUserTurn("hello")))
	require.NoError(t, store.Append(ctx, "s1", core.NewAssistantTurn("hi", nil)))
	require.NoError(t, store.Append(ctx, "s2", core.NewUserTurn("other session")))

	turns, err := store.Turns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, "hi", turns[1].Content)

	other, err := store.Turns(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestInMemorySessionStoreUnknownSession(t *testing.T) {
	store := NewInMemorySessionStore()
	turns, err := store.Turns(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestInMemorySessionStoreClear(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", core.NewUserTurn("hello")))
	require.NoError(t, store.Clear(ctx, "s1"))

	turns, err := store.Turns(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestInMemorySessionStoreConcurrentAppend(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, "s1", core.NewUserTurn("x")))
		}()
	}
	wg.Wait()

	turns, err := store.Turns(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, turns, 50)
}
