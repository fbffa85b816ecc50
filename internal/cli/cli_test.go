package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solkit/connectord/internal/storage"
	"github.com/solkit/connectord/internal/testutil"
)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func testConfig(t *testing.T) string {
	t.Helper()
	dir := testutil.TempDir(t)
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("data_dir: %q\nstorage: file\n", dir)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out := runCommand(t, "version")
	assert.Contains(t, out, "connectord")
	assert.Contains(t, out, Version)
}

func TestClustersCommand(t *testing.T) {
	out := runCommand(t, "--config", testConfig(t), "clusters")
	assert.Contains(t, out, "solana:mainnet")
	assert.Contains(t, out, "solana:devnet")
	assert.Contains(t, out, "https://api.mainnet-beta.solana.com")
	assert.Contains(t, out, "(current)")
}

func TestSessionCommand(t *testing.T) {
	cfgPath := testConfig(t)
	dataDir := filepath.Dir(cfgPath)

	t.Run("empty", func(t *testing.T) {
		out := runCommand(t, "--config", cfgPath, "session")
		assert.Contains(t, out, "no persisted session")
	})

	t.Run("shows persisted record", func(t *testing.T) {
		store, err := storage.NewFileStore(dataDir)
		require.NoError(t, err)
		record := `{"version":1,"connector_id":"wallet-standard:phantom","last_account":"Acc1","auto_connect":true}`
		require.NoError(t, store.Set("connector:session", []byte(record)))
		require.NoError(t, store.Close())

		out := runCommand(t, "--config", cfgPath, "session")
		assert.Contains(t, out, "wallet-standard:phantom")
		assert.Contains(t, out, "Acc1")
	})

	t.Run("clear", func(t *testing.T) {
		out := runCommand(t, "--config", cfgPath, "session", "--clear")
		assert.Contains(t, out, "session cleared")

		sessionClear = false
		out = runCommand(t, "--config", cfgPath, "session")
		assert.Contains(t, out, "no persisted session")
	})
}
