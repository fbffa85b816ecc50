package connector

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solkit/connectord/internal/storage"
)

func TestWalletID(t *testing.T) {
	assert.Equal(t, "wallet-standard:phantom", WalletID("Phantom"))
	assert.Equal(t, "wallet-standard:magic-eden", WalletID("Magic Eden"))
	assert.Equal(t, "wallet-standard:solflare", WalletID("  Solflare "))
}

func TestLoadSession(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		assert.Nil(t, loadSession(storage.NewMemoryStore()))
	})

	t.Run("current shape", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(sessionKey,
			[]byte(`{"version":1,"connector_id":"wallet-standard:phantom","last_account":"Acc1","auto_connect":true}`)))

		session := loadSession(store)
		require.NotNil(t, session)
		assert.Equal(t, "wallet-standard:phantom", session.ConnectorID)
		assert.Equal(t, "Acc1", session.LastAccount)
		assert.True(t, session.AutoConnect)
	})

	t.Run("unknown version discarded", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(sessionKey, []byte(`{"version":99,"connector_id":"x"}`)))

		assert.Nil(t, loadSession(store))
	})

	t.Run("corrupt record discarded", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(sessionKey, []byte(`{{{`)))

		assert.Nil(t, loadSession(store))
	})
}

func TestLegacyMigration(t *testing.T) {
	t.Run("migrates bare wallet name", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(legacyKey, []byte("Phantom")))

		session := loadSession(store)
		require.NotNil(t, session)
		assert.Equal(t, "wallet-standard:phantom", session.ConnectorID)
		assert.True(t, session.AutoConnect)

		// New record written under the current key.
		raw, ok, err := store.Get(sessionKey)
		require.NoError(t, err)
		require.True(t, ok)

		var persisted persistedSession
		require.NoError(t, json.Unmarshal(raw, &persisted))
		assert.Equal(t, 1, persisted.Version)
		assert.Equal(t, "wallet-standard:phantom", persisted.ConnectorID)
		assert.True(t, persisted.AutoConnect)

		// Legacy key removed after the new shape is safely written.
		_, ok, err = store.Get(legacyKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("accepts JSON-quoted legacy value", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(legacyKey, []byte(`"Phantom"`)))

		session := loadSession(store)
		require.NotNil(t, session)
		assert.Equal(t, "wallet-standard:phantom", session.ConnectorID)
	})

	t.Run("is idempotent across reloads", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(legacyKey, []byte("Phantom")))

		first := loadSession(store)
		require.NotNil(t, first)

		firstRaw, ok, err := store.Get(sessionKey)
		require.NoError(t, err)
		require.True(t, ok)

		second := loadSession(store)
		require.NotNil(t, second)
		assert.Equal(t, *first, *second)

		secondRaw, ok, err := store.Get(sessionKey)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, firstRaw, secondRaw, "re-running initialization must not re-migrate")
	})

	t.Run("empty legacy value is dropped", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(legacyKey, []byte("  ")))

		assert.Nil(t, loadSession(store))

		_, ok, err := store.Get(legacyKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("current record wins over legacy leftovers", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(sessionKey,
			[]byte(`{"version":1,"connector_id":"wallet-standard:solflare","auto_connect":false}`)))
		require.NoError(t, store.Set(legacyKey, []byte("Phantom")))

		session := loadSession(store)
		require.NotNil(t, session)
		assert.Equal(t, "wallet-standard:solflare", session.ConnectorID)
	})
}
