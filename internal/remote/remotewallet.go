package remote

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/solkit/connectord/internal/connerr"
	"github.com/solkit/connectord/internal/wallet"
)

// RemoteWallet adapts a remote signer into the wallet handle contract so a
// server-held key can be registered and selected like any browser-extension
// wallet. Features are derived from the server's advertised capabilities at
// construction time.
type RemoteWallet struct {
	client   *Client
	name     string
	icon     string
	chains   []string
	features []string
	address  string
}

// NewRemoteWallet fetches the server's metadata and builds the handle. The
// ctx bounds only the metadata fetch.
func NewRemoteWallet(ctx context.Context, client *Client) (*RemoteWallet, error) {
	meta, err := client.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if !wallet.ValidAddress(meta.Address) {
		return nil, connerr.Newf(connerr.CodeProviderError,
			"remote signer advertised invalid address %q", meta.Address)
	}

	features := []string{wallet.FeatureConnect}
	if meta.Capabilities.SignTransaction {
		features = append(features, wallet.FeatureSignTransaction)
	}
	if meta.Capabilities.SignAllTransactions {
		features = append(features, wallet.FeatureSignAllTransaction)
	}
	if meta.Capabilities.SignMessage {
		features = append(features, wallet.FeatureSignMessage)
	}
	if meta.Capabilities.SignAndSend {
		features = append(features, wallet.FeatureSignAndSend)
	}

	log.WithFields(log.Fields{
		"name":    meta.Name,
		"address": meta.Address,
	}).Debug("remote signer wallet constructed")

	return &RemoteWallet{
		client:   client,
		name:     meta.Name,
		icon:     meta.Icon,
		chains:   meta.Chains,
		features: features,
		address:  meta.Address,
	}, nil
}

func (w *RemoteWallet) Name() string       { return w.name }
func (w *RemoteWallet) Icon() string       { return w.icon }
func (w *RemoteWallet) Chains() []string   { return w.chains }
func (w *RemoteWallet) Features() []string { return w.features }

// Address is the server-held signer's account address.
func (w *RemoteWallet) Address() string { return w.address }

// Connect exposes the single server-held account. There is no approval
// prompt on the remote side; authorization happened at the HTTP layer.
func (w *RemoteWallet) Connect(ctx context.Context) ([]wallet.Account, error) {
	return []wallet.Account{{Address: w.address}}, nil
}

func (w *RemoteWallet) SignTransaction(ctx context.Context, account string, tx []byte) ([]byte, error) {
	if err := w.checkAccount(account); err != nil {
		return nil, err
	}
	return w.client.SignTransaction(ctx, tx)
}

func (w *RemoteWallet) SignAllTransactions(ctx context.Context, account string, txs [][]byte) ([][]byte, error) {
	if err := w.checkAccount(account); err != nil {
		return nil, err
	}
	return w.client.SignAllTransactions(ctx, txs)
}

func (w *RemoteWallet) SignMessage(ctx context.Context, account string, message []byte) ([]byte, error) {
	if err := w.checkAccount(account); err != nil {
		return nil, err
	}
	return w.client.SignMessage(ctx, message)
}

func (w *RemoteWallet) SignAndSendTransaction(ctx context.Context, account string, tx []byte, opts wallet.SendOptions) (string, error) {
	if err := w.checkAccount(account); err != nil {
		return "", err
	}
	return w.client.SignAndSend(ctx, tx, SendOptions{
		SkipPreflight: opts.SkipPreflight,
		Commitment:    opts.Commitment,
	})
}

func (w *RemoteWallet) checkAccount(account string) error {
	if account != w.address {
		return connerr.Newf(connerr.CodeAccountNotFound,
			"remote signer holds %s, not %s", w.address, account)
	}
	return nil
}
