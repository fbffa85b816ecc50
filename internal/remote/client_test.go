package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solkit/connectord/internal/connerr"
	"github.com/solkit/connectord/internal/wallet"
)

func startTestSigner(t *testing.T, secret string) (*httptest.Server, *stubProvider) {
	t.Helper()
	cfg, stub := registerStub(t)
	s := NewServer(ServerConfig{
		AuthSecret: secret,
		Provider:   cfg,
		Name:       "Test Signer",
		Chains:     []string{"solana:devnet"},
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, stub
}

func TestClient_RoundTrip(t *testing.T) {
	ts, stub := startTestSigner(t, "hunter2")
	client := NewClient(ts.URL, "hunter2")
	ctx := context.Background()

	t.Run("metadata", func(t *testing.T) {
		meta, err := client.Metadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, stubAddress, meta.Address)
		assert.Equal(t, "Test Signer", meta.Name)
	})

	t.Run("sign transaction", func(t *testing.T) {
		signed, err := client.SignTransaction(ctx, []byte("tx"))
		require.NoError(t, err)
		assert.Equal(t, []byte("tx:signed"), signed)
	})

	t.Run("sign all", func(t *testing.T) {
		signed, err := client.SignAllTransactions(ctx, [][]byte{[]byte("a"), []byte("b")})
		require.NoError(t, err)
		require.Len(t, signed, 2)
		assert.Equal(t, []byte("a:signed"), signed[0])
		assert.Equal(t, []byte("b:signed"), signed[1])
	})

	t.Run("sign message", func(t *testing.T) {
		sig, err := client.SignMessage(ctx, []byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, []byte("hello:sig"), sig)
	})

	assert.Equal(t, int32(3), stub.signCalls.Load())
}

func TestClient_ErrorDecoding(t *testing.T) {
	ts, stub := startTestSigner(t, "hunter2")
	ctx := context.Background()

	t.Run("unauthorized carries the wire code", func(t *testing.T) {
		client := NewClient(ts.URL, "wrong-secret")
		_, err := client.SignTransaction(ctx, []byte("tx"))
		require.Error(t, err)
		assert.Equal(t, connerr.CodeUnauthorized, connerr.CodeOf(err))
		assert.Equal(t, int32(0), stub.signCalls.Load())
	})

	t.Run("non-envelope body falls back to status", func(t *testing.T) {
		plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gateway timeout", http.StatusServiceUnavailable)
		}))
		defer plain.Close()

		client := NewClient(plain.URL, "any")
		_, err := client.SignMessage(ctx, []byte("m"))
		require.Error(t, err)
		assert.Equal(t, connerr.CodeProviderUnavailable, connerr.CodeOf(err))
	})
}

func TestRemoteWallet(t *testing.T) {
	ts, _ := startTestSigner(t, "hunter2")
	ctx := context.Background()

	rw, err := NewRemoteWallet(ctx, NewClient(ts.URL, "hunter2"))
	require.NoError(t, err)

	t.Run("handle surface", func(t *testing.T) {
		assert.Equal(t, "Test Signer", rw.Name())
		assert.Equal(t, []string{"solana:devnet"}, rw.Chains())
		assert.Equal(t, stubAddress, rw.Address())
		assert.True(t, wallet.HasFeature(rw, wallet.FeatureConnect))
		assert.True(t, wallet.HasFeature(rw, wallet.FeatureSignTransaction))
		assert.True(t, wallet.HasFeature(rw, wallet.FeatureSignMessage))
		assert.False(t, wallet.HasFeature(rw, wallet.FeatureSignAndSend),
			"server without an RPC URL must not advertise broadcast")
	})

	t.Run("satisfies the capability interfaces", func(t *testing.T) {
		var w wallet.Wallet = rw
		_, ok := w.(wallet.TransactionSigner)
		assert.True(t, ok)
		_, ok = w.(wallet.TransactionBatchSigner)
		assert.True(t, ok)
		_, ok = w.(wallet.MessageSigner)
		assert.True(t, ok)
	})

	t.Run("connect exposes the held account", func(t *testing.T) {
		accounts, err := rw.Connect(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, stubAddress, accounts[0].Address)
	})

	t.Run("signing flows through", func(t *testing.T) {
		signed, err := rw.SignTransaction(ctx, stubAddress, []byte("tx"))
		require.NoError(t, err)
		assert.Equal(t, []byte("tx:signed"), signed)

		sig, err := rw.SignMessage(ctx, stubAddress, []byte("m"))
		require.NoError(t, err)
		assert.Equal(t, []byte("m:sig"), sig)
	})

	t.Run("rejects a foreign account", func(t *testing.T) {
		_, err := rw.SignTransaction(ctx, "SomeOtherAddress", []byte("tx"))
		require.Error(t, err)
		assert.Equal(t, connerr.CodeAccountNotFound, connerr.CodeOf(err))
	})
}

func TestNewRemoteWallet_Failures(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		ts, _ := startTestSigner(t, "hunter2")
		_, err := NewRemoteWallet(context.Background(), NewClient(ts.URL, "nope"))
		require.Error(t, err)
		assert.Equal(t, connerr.CodeUnauthorized, connerr.CodeOf(err))
	})

	t.Run("invalid advertised address", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"address":"not-an-address","chains":["solana:devnet"],"capabilities":{},"name":"Bad"}`))
		}))
		defer bad.Close()

		_, err := NewRemoteWallet(context.Background(), NewClient(bad.URL, "s"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid address")
	})
}
