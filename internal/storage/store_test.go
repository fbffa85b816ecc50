package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solkit/connectord/internal/testutil"
)

// stores under test share one contract; run the same suite against each.
func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	fileStore, err := NewFileStore(testutil.TempDir(t))
	require.NoError(t, err)

	badgerStore, err := NewBadgerStore(testutil.TempDir(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"badger": badgerStore,
	}
}

func TestStore_Contract(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("get missing key", func(t *testing.T) {
				_, ok, err := store.Get("absent")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("set then get", func(t *testing.T) {
				require.NoError(t, store.Set("wallet", []byte("phantom")))

				value, ok, err := store.Get("wallet")
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, []byte("phantom"), value)
			})

			t.Run("overwrite", func(t *testing.T) {
				require.NoError(t, store.Set("wallet", []byte("solflare")))

				value, ok, err := store.Get("wallet")
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, []byte("solflare"), value)
			})

			t.Run("delete", func(t *testing.T) {
				require.NoError(t, store.Delete("wallet"))

				_, ok, err := store.Get("wallet")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("delete missing key is no-op", func(t *testing.T) {
				require.NoError(t, store.Delete("never-set"))
			})

			t.Run("reset clears everything", func(t *testing.T) {
				require.NoError(t, store.Set("a", []byte("1")))
				require.NoError(t, store.Set("b", []byte("2")))
				require.NoError(t, store.Reset())

				_, ok, err := store.Get("a")
				require.NoError(t, err)
				assert.False(t, ok)
				_, ok, err = store.Get("b")
				require.NoError(t, err)
				assert.False(t, ok)
			})
		})
	}
}

func TestFileStore_Persistence(t *testing.T) {
	t.Run("survives reopen", func(t *testing.T) {
		dir := testutil.TempDir(t)

		store1, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, store1.Set("session", []byte(`{"v":1}`)))

		store2, err := NewFileStore(dir)
		require.NoError(t, err)

		value, ok, err := store2.Get("session")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte(`{"v":1}`), value)
	})

	t.Run("creates data directory", func(t *testing.T) {
		dir := filepath.Join(testutil.TempDir(t), "nested")

		_, err := NewFileStore(dir)
		require.NoError(t, err)

		_, err = os.Stat(dir)
		require.NoError(t, err)
	})

	t.Run("returns error for corrupt state file", func(t *testing.T) {
		dir := testutil.TempDir(t)
		err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("not json"), 0600)
		require.NoError(t, err)

		_, err = NewFileStore(dir)
		require.Error(t, err)
	})

	t.Run("state file has 0600 permissions", func(t *testing.T) {
		dir := testutil.TempDir(t)
		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.Set("k", []byte("v")))

		info, err := os.Stat(filepath.Join(dir, "state.json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("binary values roundtrip", func(t *testing.T) {
		store, err := NewFileStore(testutil.TempDir(t))
		require.NoError(t, err)

		raw := []byte{0x00, 0xff, 0x10, 0x80}
		require.NoError(t, store.Set("raw", raw))

		value, ok, err := store.Get("raw")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, raw, value)
	})
}

func TestBadgerStore_Reopen(t *testing.T) {
	dir := testutil.TempDir(t)

	store1, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("session", []byte("data")))
	require.NoError(t, store1.Close())

	store2, err := NewBadgerStore(dir)
	require.NoError(t, err)
	defer store2.Close()

	value, ok, err := store2.Get("session")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("data"), value)
}

func TestMemoryStore_Concurrency(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Set("key", []byte{byte(i)})
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.Get("key")
		}()
	}
	wg.Wait()
}
