// Package signer wraps a connected wallet's signing capabilities behind a
// uniform interface. A Signer is bound to one (wallet, account, cluster)
// triple; the connector client discards it the moment any of the three
// changes.
package signer

import (
	"context"
	"fmt"

	"github.com/solkit/connectord/internal/cluster"
	"github.com/solkit/connectord/internal/connerr"
	"github.com/solkit/connectord/internal/events"
	"github.com/solkit/connectord/internal/wallet"
)

// Capabilities reports which optional operations the underlying wallet
// exposes. Computed once at construction from the wallet's declared feature
// set and the interfaces its handle actually satisfies.
type Capabilities struct {
	SignTransaction     bool `json:"sign_transaction"`
	SignAllTransactions bool `json:"sign_all_transactions"`
	SignAndSend         bool `json:"sign_and_send"`
	SignMessage         bool `json:"sign_message"`
}

// Signer is a capability-checked signing facade over a connected wallet.
type Signer struct {
	wallet  wallet.Wallet
	account string
	cluster cluster.Cluster
	caps    Capabilities
	emit    func(events.Event)
}

// New builds a signer for the given triple. emit is the connector client's
// event hook; pass nil to disable lifecycle reporting.
func New(w wallet.Wallet, account string, cl cluster.Cluster, emit func(events.Event)) *Signer {
	if emit == nil {
		emit = func(events.Event) {}
	}

	_, canSign := w.(wallet.TransactionSigner)
	_, canBatch := w.(wallet.TransactionBatchSigner)
	_, canSend := w.(wallet.TransactionSender)
	_, canMsg := w.(wallet.MessageSigner)

	return &Signer{
		wallet:  w,
		account: account,
		cluster: cl,
		emit:    emit,
		caps: Capabilities{
			SignTransaction:     canSign && wallet.HasFeature(w, wallet.FeatureSignTransaction),
			SignAllTransactions: canBatch && wallet.HasFeature(w, wallet.FeatureSignAllTransaction),
			SignAndSend:         canSend && wallet.HasFeature(w, wallet.FeatureSignAndSend),
			SignMessage:         canMsg && wallet.HasFeature(w, wallet.FeatureSignMessage),
		},
	}
}

// Address returns the account address the signer is bound to.
func (s *Signer) Address() string {
	return s.account
}

// Cluster returns the cluster the signer is bound to.
func (s *Signer) Cluster() cluster.Cluster {
	return s.cluster
}

// Capabilities returns the capability set computed at construction.
func (s *Signer) Capabilities() Capabilities {
	return s.caps
}

// SignTransaction signs a single serialized transaction.
func (s *Signer) SignTransaction(ctx context.Context, tx []byte) ([]byte, error) {
	if !s.caps.SignTransaction {
		return nil, s.unsupported("signTransaction")
	}

	signed, err := s.wallet.(wallet.TransactionSigner).SignTransaction(ctx, s.account, tx)
	if err != nil {
		return nil, s.failed(connerr.CodeSigningFailed, "transaction signing failed", err)
	}
	return signed, nil
}

// SignAllTransactions signs txs preserving input order. Wallets with a
// native batch feature sign in one round trip; otherwise each transaction is
// signed sequentially and the first failure aborts the batch, identified by
// its position.
func (s *Signer) SignAllTransactions(ctx context.Context, txs [][]byte) ([][]byte, error) {
	if s.caps.SignAllTransactions {
		signed, err := s.wallet.(wallet.TransactionBatchSigner).SignAllTransactions(ctx, s.account, txs)
		if err != nil {
			return nil, s.failed(connerr.CodeSigningFailed, "batch signing failed", err)
		}
		return signed, nil
	}

	if !s.caps.SignTransaction {
		return nil, s.unsupported("signAllTransactions")
	}

	single := s.wallet.(wallet.TransactionSigner)
	signed := make([][]byte, 0, len(txs))
	for i, tx := range txs {
		out, err := single.SignTransaction(ctx, s.account, tx)
		if err != nil {
			cerr := connerr.Wrap(err, connerr.CodeSigningFailed,
				fmt.Sprintf("failed to sign transaction %d of %d", i+1, len(txs)))
			s.emit(events.Event{Type: events.TypeError, Wallet: s.wallet.Name(), Account: s.account, Err: cerr})
			return nil, cerr
		}
		signed = append(signed, out)
	}
	return signed, nil
}

// SignAndSendTransaction signs tx and broadcasts it through the wallet,
// returning the transaction signature. Broadcasting is the wallet's job;
// there is no client-side fallback to manual broadcast.
func (s *Signer) SignAndSendTransaction(ctx context.Context, tx []byte, opts wallet.SendOptions) (string, error) {
	if !s.caps.SignAndSend {
		return "", s.unsupported("signAndSendTransaction")
	}

	sig, err := s.wallet.(wallet.TransactionSender).SignAndSendTransaction(ctx, s.account, tx, opts)
	if err != nil {
		return "", s.failed(connerr.CodeSendFailed, "transaction send failed", err)
	}
	return sig, nil
}

// SignMessage signs an arbitrary message.
func (s *Signer) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if !s.caps.SignMessage {
		return nil, s.unsupported("signMessage")
	}

	sig, err := s.wallet.(wallet.MessageSigner).SignMessage(ctx, s.account, message)
	if err != nil {
		return nil, s.failed(connerr.CodeSigningFailed, "message signing failed", err)
	}
	return sig, nil
}

func (s *Signer) unsupported(op string) error {
	return connerr.Newf(connerr.CodeFeatureNotSupported,
		"wallet %s does not support %s", s.wallet.Name(), op)
}

func (s *Signer) failed(code connerr.Code, msg string, err error) error {
	cerr := connerr.Wrap(err, code, msg)
	s.emit(events.Event{Type: events.TypeError, Wallet: s.wallet.Name(), Account: s.account, Err: cerr})
	return cerr
}
