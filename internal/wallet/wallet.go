// Package wallet defines the wallet-standard-style handle contract and the
// registry through which wallet providers announce themselves.
package wallet

import (
	"context"

	"github.com/mr-tron/base58"
)

// Feature identifiers a wallet may declare. Mirrors the wallet-standard
// capability-announcement convention: a wallet advertises a sparse set of
// optional features and consumers branch on what is declared, never on what
// they assume.
const (
	FeatureConnect            = "standard:connect"
	FeatureDisconnect         = "standard:disconnect"
	FeatureSignTransaction    = "solana:signTransaction"
	FeatureSignAllTransaction = "solana:signAllTransactions"
	FeatureSignAndSend        = "solana:signAndSendTransaction"
	FeatureSignMessage        = "solana:signMessage"
)

// Account is a single account exposed by a connected wallet.
type Account struct {
	Address   string `json:"address"`
	PublicKey []byte `json:"public_key,omitempty"`
	Label     string `json:"label,omitempty"`
}

// ValidAddress reports whether addr is a plausible Solana address: base58
// text decoding to a 32-byte ed25519 public key.
func ValidAddress(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil {
		return false
	}
	return len(raw) == 32
}

// Wallet is the minimal handle every discovered provider exposes. The
// optional signing capabilities live on separate interfaces asserted at
// runtime, io-package style.
type Wallet interface {
	// Name is the provider's display name, unique within a registry.
	Name() string

	// Icon is a data URI or URL for the provider's icon, may be empty.
	Icon() string

	// Chains lists the cluster IDs the provider supports.
	Chains() []string

	// Features lists the feature identifiers the provider declares.
	Features() []string

	// Connect requests account access and returns the exposed accounts.
	Connect(ctx context.Context) ([]Account, error)
}

// Disconnector is implemented by wallets declaring standard:disconnect.
type Disconnector interface {
	Disconnect(ctx context.Context) error
}

// SendOptions carries broadcast preferences for signAndSend operations.
type SendOptions struct {
	SkipPreflight bool   `json:"skip_preflight,omitempty"`
	Commitment    string `json:"commitment,omitempty"`
}

// TransactionSigner is implemented by wallets declaring solana:signTransaction.
// Transactions cross this boundary as opaque serialized bytes.
type TransactionSigner interface {
	SignTransaction(ctx context.Context, account string, tx []byte) ([]byte, error)
}

// TransactionBatchSigner is implemented by wallets with a native batch
// signing feature (solana:signAllTransactions).
type TransactionBatchSigner interface {
	SignAllTransactions(ctx context.Context, account string, txs [][]byte) ([][]byte, error)
}

// TransactionSender is implemented by wallets declaring
// solana:signAndSendTransaction. Returns the transaction signature.
type TransactionSender interface {
	SignAndSendTransaction(ctx context.Context, account string, tx []byte, opts SendOptions) (string, error)
}

// MessageSigner is implemented by wallets declaring solana:signMessage.
type MessageSigner interface {
	SignMessage(ctx context.Context, account string, message []byte) ([]byte, error)
}

// HasFeature reports whether w declares the given feature identifier.
func HasFeature(w Wallet, feature string) bool {
	for _, f := range w.Features() {
		if f == feature {
			return true
		}
	}
	return false
}
