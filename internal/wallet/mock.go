package wallet

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Fake is a configurable in-memory wallet used by tests and by the localnet
// demo wiring. Function fields override the default behavior; call counters
// track how often each capability was invoked.
type Fake struct {
	WalletName     string
	WalletIcon     string
	WalletChains   []string
	WalletFeatures []string
	Accounts       []Account

	ConnectFn     func(ctx context.Context) ([]Account, error)
	DisconnectFn  func(ctx context.Context) error
	SignFn        func(ctx context.Context, account string, tx []byte) ([]byte, error)
	SignAllFn     func(ctx context.Context, account string, txs [][]byte) ([][]byte, error)
	SignAndSendFn func(ctx context.Context, account string, tx []byte, opts SendOptions) (string, error)
	SignMsgFn     func(ctx context.Context, account string, message []byte) ([]byte, error)

	ConnectCalls    atomic.Int64
	DisconnectCalls atomic.Int64
	SignCalls       atomic.Int64
}

// NewFake creates a fake wallet with the full feature set and one account.
func NewFake(name string, accounts ...Account) *Fake {
	return &Fake{
		WalletName:   name,
		WalletChains: []string{"solana:mainnet", "solana:devnet", "solana:testnet"},
		WalletFeatures: []string{
			FeatureConnect,
			FeatureDisconnect,
			FeatureSignTransaction,
			FeatureSignAllTransaction,
			FeatureSignAndSend,
			FeatureSignMessage,
		},
		Accounts: accounts,
	}
}

func (f *Fake) Name() string       { return f.WalletName }
func (f *Fake) Icon() string       { return f.WalletIcon }
func (f *Fake) Chains() []string   { return f.WalletChains }
func (f *Fake) Features() []string { return f.WalletFeatures }

// Connect returns the configured accounts or delegates to ConnectFn.
func (f *Fake) Connect(ctx context.Context) ([]Account, error) {
	f.ConnectCalls.Add(1)
	if f.ConnectFn != nil {
		return f.ConnectFn(ctx)
	}
	return f.Accounts, nil
}

// Disconnect delegates to DisconnectFn, defaulting to success.
func (f *Fake) Disconnect(ctx context.Context) error {
	f.DisconnectCalls.Add(1)
	if f.DisconnectFn != nil {
		return f.DisconnectFn(ctx)
	}
	return nil
}

// SignTransaction delegates to SignFn, defaulting to an echo of the input
// with a marker suffix so tests can assert the bytes passed through.
func (f *Fake) SignTransaction(ctx context.Context, account string, tx []byte) ([]byte, error) {
	f.SignCalls.Add(1)
	if f.SignFn != nil {
		return f.SignFn(ctx, account, tx)
	}
	return append(append([]byte{}, tx...), []byte(":signed")...), nil
}

// SignAllTransactions delegates to SignAllFn when set; otherwise it is only
// available if the fake declares the batch feature.
func (f *Fake) SignAllTransactions(ctx context.Context, account string, txs [][]byte) ([][]byte, error) {
	if f.SignAllFn != nil {
		return f.SignAllFn(ctx, account, txs)
	}
	out := make([][]byte, 0, len(txs))
	for _, tx := range txs {
		signed, err := f.SignTransaction(ctx, account, tx)
		if err != nil {
			return nil, err
		}
		out = append(out, signed)
	}
	return out, nil
}

// SignAndSendTransaction delegates to SignAndSendFn, defaulting to a
// deterministic pseudo-signature.
func (f *Fake) SignAndSendTransaction(ctx context.Context, account string, tx []byte, opts SendOptions) (string, error) {
	if f.SignAndSendFn != nil {
		return f.SignAndSendFn(ctx, account, tx, opts)
	}
	return fmt.Sprintf("sig-%s-%d", account, len(tx)), nil
}

// SignMessage delegates to SignMsgFn, defaulting to an echo.
func (f *Fake) SignMessage(ctx context.Context, account string, message []byte) ([]byte, error) {
	if f.SignMsgFn != nil {
		return f.SignMsgFn(ctx, account, message)
	}
	return append(append([]byte{}, message...), []byte(":sig")...), nil
}
