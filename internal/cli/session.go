package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/solkit/connectord/internal/config"
	"github.com/solkit/connectord/internal/connector"
	"github.com/solkit/connectord/internal/storage"
)

var sessionClear bool

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the persisted wallet session",
	RunE:  runSession,
}

func init() {
	sessionCmd.Flags().BoolVar(&sessionClear, "clear", false, "remove the persisted session")
	rootCmd.AddCommand(sessionCmd)
}

// openStore builds the session store the configured backend points at.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil
	case config.StorageBadger:
		return storage.NewBadgerStore(filepath.Join(cfg.DataDir, "badger"))
	default:
		return storage.NewFileStore(cfg.DataDir)
	}
}

func runSession(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if sessionClear {
		connector.ForgetSession(store)
		fmt.Fprintln(out, "session cleared")
		return nil
	}

	session, ok := connector.InspectSession(store)
	if !ok {
		fmt.Fprintln(out, "no persisted session")
		return nil
	}

	fmt.Fprintf(out, "wallet:        %s\n", session.ConnectorID)
	if session.LastAccount != "" {
		fmt.Fprintf(out, "last account:  %s\n", session.LastAccount)
	}
	fmt.Fprintf(out, "auto-connect:  %t\n", session.AutoConnect)
	if !session.LastConnected.IsZero() {
		fmt.Fprintf(out, "last connected: %s\n", session.LastConnected.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}
