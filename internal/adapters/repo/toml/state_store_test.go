package toml

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, path string) *StateStore {
	t.Helper()

	store, err := NewStateStore(path, nil)
	require.NoError(t, err)
	return store
}

func TestStateStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.toml")
	store := newTestStore(t, path)
	history := `[{"id":1,"sender":"bot","text":"Welcome!\nline two"}]`

	require.NoError(t, store.Put(context.Background(), "eziii/student_chat_history", history))
	require.NoError(t, store.Put(context.Background(), "eziii/admin_chat_context", "all"))

	reopened := newTestStore(t, path)
	got, err := reopened.Get(context.Background(), "eziii/student_chat_history")
	require.NoError(t, err)
	assert.Equal(t, history, got)

	require.NoError(t, reopened.Put(context.Background(), "eziii/admin_chat_context", "7"))
	got, err = store.Get(context.Background(), "eziii/admin_chat_context")
	require.NoError(t, err)
	assert.Equal(t, "7", got)
}

func TestStateStoreMissingKeyAndFile(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, filepath.Join(t.TempDir(), "nested", "state.toml"))

	_, err := store.Get(context.Background(), "eziii/student_chat_history")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	keys, err := store.Keys(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, store.Delete(context.Background(), "eziii/student_chat_history"))
}

func TestStateStoreKeysFiltersByPrefixSorted(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, filepath.Join(t.TempDir(), "state.toml"))
	ctx := context.Background()

	for _, key := range []string{"eziii/admin_chat_history/9", "eziii/student_chat_history", "eziii/admin_chat_history", "eziii/admin_chat_history/12"} {
		require.NoError(t, store.Put(ctx, key, "[]"))
	}
	require.NoError(t, store.Delete(ctx, "eziii/admin_chat_history/9"))

	keys, err := store.Keys(ctx, "eziii/admin_chat_history")
	require.NoError(t, err)
	assert.Equal(t, []string{"eziii/admin_chat_history", "eziii/admin_chat_history/12"}, keys)
}

func TestStateStorePutStampsUpdatedAtAndVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.toml")
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)).Once()

	store, err := NewStateStore(path, clock)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "eziii/admin_chat_context", "all"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "2026-03-01T10:00:00Z")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(stateFileMode), info.Mode().Perm())
}

func TestStateStoreFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 2\n"), 0o600))

	_, err := newTestStore(t, path).Get(context.Background(), "any")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported state schema version")
}

func TestStateStoreMalformedFileReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.toml")
	require.NoError(t, os.WriteFile(path, []byte("entries = [[["), 0o600))

	_, err := newTestStore(t, path).Keys(context.Background(), "")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decode state file"))
}

func TestStateStoreCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestStore(t, filepath.Join(t.TempDir(), "state.toml")).Put(ctx, "k", "v")
	require.ErrorIs(t, err, context.Canceled)
}

func TestStateStoreConcurrentPutsAcrossInstancesKeepEveryKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.toml")
	storeA := newTestStore(t, path)
	storeB := newTestStore(t, path)

	const perStoreWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perStoreWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	write := func(store *StateStore, prefix string) {
		defer wg.Done()
		<-start
		for i := 0; i < perStoreWrites; i++ {
			errCh <- store.Put(context.Background(), prefix+strconv.Itoa(i), "[]")
		}
	}
	go write(storeA, "a/")
	go write(storeB, "b/")

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	keys, err := storeA.Keys(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, keys, perStoreWrites*2)
}

func TestNewStateStoreRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewStateStore("  ", nil)
	require.Error(t, err)
}
