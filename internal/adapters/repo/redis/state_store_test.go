package redis

import (
	"context"
	"os"
	"testing"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapePattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `eziii/admin_chat_history`, escapePattern("eziii/admin_chat_history"))
	assert.Equal(t, `ns\*\?\[x\]\\`, escapePattern(`ns*?[x]\`))
}

// Runs against a real server when EZ_TEST_REDIS_ADDR is set.
func TestStateStoreAgainstRedis(t *testing.T) {
	addr := os.Getenv("EZ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EZ_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	prefix := "eztest-" + uuid.NewString() + "/"
	store := NewStateStore(client)
	t.Cleanup(func() {
		keys, _ := store.Keys(context.Background(), prefix)
		for _, key := range keys {
			_ = store.Delete(context.Background(), key)
		}
	})

	_, err = store.Get(ctx, prefix+"student_chat_history")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, prefix+"admin_chat_history", `[{"id":1}]`))
	require.NoError(t, store.Put(ctx, prefix+"admin_chat_history/7", `[{"id":2}]`))
	require.NoError(t, store.Put(ctx, prefix+"admin_chat_context", "7"))

	got, err := store.Get(ctx, prefix+"admin_chat_history/7")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":2}]`, got)

	keys, err := store.Keys(ctx, prefix+"admin_chat_history")
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + "admin_chat_history", prefix + "admin_chat_history/7"}, keys)

	require.NoError(t, store.Delete(ctx, prefix+"admin_chat_context"))
	_, err = store.Get(ctx, prefix+"admin_chat_context")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
}
