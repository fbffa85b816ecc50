package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/solkit/connectord/internal/remote"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the remote signer daemon",
	Long: `serve exposes the configured signer provider over the remote signer
HTTP protocol. Requests must carry the bearer token from
signer.auth_secret (or CONNECTORD_SIGNER_AUTH_SECRET); with no secret
configured every request is rejected.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	chains := cfg.Signer.Chains
	if len(chains) == 0 {
		chains = []string{cfg.Cluster}
	}

	srv := remote.NewServer(remote.ServerConfig{
		AuthSecret: cfg.Signer.AuthSecret,
		Provider:   cfg.Signer.Provider,
		RPCURL:     cfg.Signer.RPCURL,
		Name:       cfg.Signer.Name,
		Icon:       cfg.Signer.Icon,
		Chains:     chains,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Listen)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
