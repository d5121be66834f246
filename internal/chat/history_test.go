package chat

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/wooassist/internal/ai"
)

func historyContract(t *testing.T, h History) {
	ctx := context.Background()
	key := "tenant:1:conv:" + t.Name()

	recent, err := h.Recent(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, recent)

	for i := 0; i < 7; i++ {
		require.NoError(t, h.Append(ctx, key,
			ai.Message{Role: ai.RoleUser, Content: fmt.Sprintf("q%d", i)},
			ai.Message{Role: ai.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		))
	}

	recent, err = h.Recent(ctx, key)
	require.NoError(t, err)
	require.Len(t, recent, MaxHistory)
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "q2"}, recent[0])
	assert.Equal(t, ai.Message{Role: ai.RoleAssistant, Content: "a6"}, recent[MaxHistory-1])

	other, err := h.Recent(ctx, key+"-other")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, h.Clear(ctx, key))
	recent, err = h.Recent(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestMemoryHistory(t *testing.T) {
	historyContract(t, NewMemoryHistory())
}

func TestMemoryHistoryReturnsCopies(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	require.NoError(t, h.Append(ctx, "k", ai.Message{Role: ai.RoleUser, Content: "hi"}))

	recent, err := h.Recent(ctx, "k")
	require.NoError(t, err)
	recent[0].Content = "changed"

	again, err := h.Recent(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hi", again[0].Content)
}

// Runs against a live server when REDIS_ADDR is set
func TestRedisHistory(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	historyContract(t, NewRedisHistory(rdb, time.Minute))
}
