package remote

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/solkit/connectord/internal/connerr"
)

// rpcBroadcaster submits signed transactions to a Solana JSON-RPC node.
type rpcBroadcaster struct {
	http *resty.Client
	url  string
}

func newRPCBroadcaster(rpcURL string) *rpcBroadcaster {
	return &rpcBroadcaster{
		http: resty.New().SetTimeout(30 * time.Second),
		url:  rpcURL,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

// SendTransaction broadcasts signed transaction bytes and returns the
// node-assigned signature.
func (b *rpcBroadcaster) SendTransaction(ctx context.Context, signedTx []byte, opts SendOptions) (string, error) {
	params := map[string]any{"encoding": "base64"}
	if opts.SkipPreflight {
		params["skipPreflight"] = true
	}
	if opts.Commitment != "" {
		params["preflightCommitment"] = opts.Commitment
	}

	var out rpcResponse
	resp, err := b.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			JSONRPC: "2.0",
			ID:      1,
			Method:  "sendTransaction",
			Params:  []any{base64.StdEncoding.EncodeToString(signedTx), params},
		}).
		SetResult(&out).
		Post(b.url)
	if err != nil {
		return "", connerr.Wrap(err, connerr.CodeSendFailed, "rpc node unreachable")
	}
	if resp.IsError() {
		return "", connerr.Newf(connerr.CodeSendFailed, "rpc node returned HTTP %d", resp.StatusCode())
	}
	if out.Error != nil {
		return "", connerr.Newf(connerr.CodeSendFailed,
			"sendTransaction rejected: %s (code %d)", out.Error.Message, out.Error.Code)
	}
	if out.Result == "" {
		return "", connerr.New(connerr.CodeSendFailed, "rpc node returned no signature")
	}
	return out.Result, nil
}
