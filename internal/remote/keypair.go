package remote

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// keypairProvider signs with an in-process ed25519 key. Intended for
// development and for custodial deployments where the key is injected
// through the environment.
type keypairProvider struct {
	key     ed25519.PrivateKey
	address string
}

// newKeypairProvider builds a provider from the base58-encoded "secret_key"
// setting. Both the 64-byte Solana CLI format (seed || public key) and a
// bare 32-byte seed are accepted.
func newKeypairProvider(cfg ProviderConfig) (Provider, error) {
	encoded, err := requiredSetting(cfg, "secret_key")
	if err != nil {
		return nil, err
	}

	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "secret_key is not valid base58")
	}

	var key ed25519.PrivateKey
	switch len(raw) {
	case ed25519.PrivateKeySize:
		key = ed25519.PrivateKey(raw)
	case ed25519.SeedSize:
		key = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, fmt.Errorf(
			"secret_key must decode to %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}

	address := base58.Encode(key.Public().(ed25519.PublicKey))
	return &keypairProvider{key: key, address: address}, nil
}

func (p *keypairProvider) Address() string {
	return p.address
}

// SignTransaction signs the transaction's message bytes and writes the
// signature into the first signature slot. The provider's key is expected to
// be the fee payer; everything past the signature table is treated as opaque.
func (p *keypairProvider) SignTransaction(ctx context.Context, tx []byte) ([]byte, error) {
	sigCount, headerLen, err := decodeShortvec(tx)
	if err != nil {
		return nil, errors.Wrap(err, "malformed transaction envelope")
	}
	if sigCount < 1 {
		return nil, fmt.Errorf("transaction reserves no signature slots")
	}

	messageOffset := headerLen + sigCount*ed25519.SignatureSize
	if len(tx) <= messageOffset {
		return nil, fmt.Errorf("transaction is truncated: %d bytes, message expected past %d", len(tx), messageOffset)
	}

	signature := ed25519.Sign(p.key, tx[messageOffset:])

	signed := make([]byte, len(tx))
	copy(signed, tx)
	copy(signed[headerLen:], signature)
	return signed, nil
}

// SignAllTransactions signs sequentially, preserving input order.
func (p *keypairProvider) SignAllTransactions(ctx context.Context, txs [][]byte) ([][]byte, error) {
	signed := make([][]byte, 0, len(txs))
	for i, tx := range txs {
		out, err := p.SignTransaction(ctx, tx)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d of %d", i+1, len(txs))
		}
		signed = append(signed, out)
	}
	return signed, nil
}

// SignMessage produces a detached ed25519 signature.
func (p *keypairProvider) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	return ed25519.Sign(p.key, message), nil
}

// Available is always true once the key parsed.
func (p *keypairProvider) Available(ctx context.Context) bool {
	return true
}

// decodeShortvec reads Solana's compact-u16 length prefix.
func decodeShortvec(b []byte) (value int, n int, err error) {
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("short buffer")
		}
		value |= int(b[i]&0x7f) << (7 * i)
		n++
		if b[i]&0x80 == 0 {
			return value, n, nil
		}
	}
	return 0, 0, fmt.Errorf("compact-u16 prefix too long")
}
