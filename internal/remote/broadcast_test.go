package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solkit/connectord/internal/connerr"
)

type fakeRPCNode struct {
	server  *httptest.Server
	lastReq rpcRequest
	respond func(w http.ResponseWriter, req rpcRequest)
}

// startFakeRPCNode serves a single JSON-RPC endpoint and records the last
// request for envelope assertions.
func startFakeRPCNode(t *testing.T) *fakeRPCNode {
	t.Helper()
	node := &fakeRPCNode{
		respond: func(w http.ResponseWriter, req rpcRequest) {
			_ = json.NewEncoder(w).Encode(rpcResponse{Result: "5ig9ature"})
		},
	}

	node.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		node.lastReq = req
		w.Header().Set("Content-Type", "application/json")
		node.respond(w, req)
	}))
	t.Cleanup(node.server.Close)
	return node
}

func TestRPCBroadcaster_SendTransaction(t *testing.T) {
	node := startFakeRPCNode(t)
	b := newRPCBroadcaster(node.server.URL)
	ctx := context.Background()

	t.Run("envelope and signature", func(t *testing.T) {
		sig, err := b.SendTransaction(ctx, []byte("signed-tx"), SendOptions{})
		require.NoError(t, err)
		assert.Equal(t, "5ig9ature", sig)

		assert.Equal(t, "2.0", node.lastReq.JSONRPC)
		assert.Equal(t, "sendTransaction", node.lastReq.Method)
		require.Len(t, node.lastReq.Params, 2)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("signed-tx")), node.lastReq.Params[0])

		opts, ok := node.lastReq.Params[1].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "base64", opts["encoding"])
		assert.NotContains(t, opts, "skipPreflight")
		assert.NotContains(t, opts, "preflightCommitment")
	})

	t.Run("send options pass through", func(t *testing.T) {
		_, err := b.SendTransaction(ctx, []byte("tx"), SendOptions{
			SkipPreflight: true,
			Commitment:    "finalized",
		})
		require.NoError(t, err)

		opts, ok := node.lastReq.Params[1].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, opts["skipPreflight"])
		assert.Equal(t, "finalized", opts["preflightCommitment"])
	})

	t.Run("rpc-level rejection", func(t *testing.T) {
		node.respond = func(w http.ResponseWriter, req rpcRequest) {
			_ = json.NewEncoder(w).Encode(rpcResponse{
				Error: &rpcError{Code: -32002, Message: "Blockhash not found"},
			})
		}
		_, err := b.SendTransaction(ctx, []byte("tx"), SendOptions{})
		require.Error(t, err)
		assert.Equal(t, connerr.CodeSendFailed, connerr.CodeOf(err))
		assert.Contains(t, err.Error(), "Blockhash not found")
	})

	t.Run("http failure", func(t *testing.T) {
		node.respond = func(w http.ResponseWriter, req rpcRequest) {
			w.WriteHeader(http.StatusBadGateway)
		}
		_, err := b.SendTransaction(ctx, []byte("tx"), SendOptions{})
		require.Error(t, err)
		assert.Equal(t, connerr.CodeSendFailed, connerr.CodeOf(err))
	})

	t.Run("missing signature", func(t *testing.T) {
		node.respond = func(w http.ResponseWriter, req rpcRequest) {
			_ = json.NewEncoder(w).Encode(rpcResponse{})
		}
		_, err := b.SendTransaction(ctx, []byte("tx"), SendOptions{})
		require.Error(t, err)
		assert.Equal(t, connerr.CodeSendFailed, connerr.CodeOf(err))
	})

	t.Run("unreachable node", func(t *testing.T) {
		unreachable := newRPCBroadcaster("http://127.0.0.1:1")
		_, err := unreachable.SendTransaction(ctx, []byte("tx"), SendOptions{})
		require.Error(t, err)
		assert.Equal(t, connerr.CodeSendFailed, connerr.CodeOf(err))
	})
}

func TestServer_SignAndSend(t *testing.T) {
	node := startFakeRPCNode(t)
	cfg, stub := registerStub(t)
	s := NewServer(ServerConfig{
		AuthSecret: "s",
		Provider:   cfg,
		RPCURL:     node.server.URL,
	})

	t.Run("metadata advertises broadcast", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "s", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodeBody[Metadata](t, rec).Capabilities.SignAndSend)
	})

	t.Run("signs then broadcasts", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "s", Request{
			Operation:   OpSignAndSend,
			Transaction: b64([]byte("tx")),
			Options:     SendOptions{Commitment: "confirmed"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "5ig9ature", decodeBody[SignAndSendResponse](t, rec).Signature)
		assert.Equal(t, int32(1), stub.signCalls.Load())

		broadcast, err := base64.StdEncoding.DecodeString(node.lastReq.Params[0].(string))
		require.NoError(t, err)
		assert.Equal(t, []byte("tx:signed"), broadcast, "the provider-signed bytes must be what goes on the wire")

		opts, ok := node.lastReq.Params[1].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "confirmed", opts["preflightCommitment"])
	})

	t.Run("broadcast failure surfaces SEND_FAILED", func(t *testing.T) {
		node.respond = func(w http.ResponseWriter, req rpcRequest) {
			_ = json.NewEncoder(w).Encode(rpcResponse{
				Error: &rpcError{Code: -32005, Message: "node is behind"},
			})
		}
		rec := doRequest(t, s, http.MethodPost, "s", Request{
			Operation:   OpSignAndSend,
			Transaction: b64([]byte("tx")),
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, string(connerr.CodeSendFailed), errorCode(t, rec))
	})
}
