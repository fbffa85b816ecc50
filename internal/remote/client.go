package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/solkit/connectord/internal/connerr"
)

const clientTimeout = 30 * time.Second

// Client talks to a remote signer server. It is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for the signer at baseURL authenticating with
// secret as a bearer token.
func NewClient(baseURL, secret string) *Client {
	http := resty.New().
		SetHostURL(baseURL).
		SetAuthToken(secret).
		SetTimeout(clientTimeout)
	return &Client{http: http}
}

// Metadata fetches the server-held signer's address and capabilities.
func (c *Client) Metadata(ctx context.Context) (Metadata, error) {
	var meta Metadata
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&meta).
		Get("/")
	if err != nil {
		return Metadata{}, errors.Wrap(err, "failed to reach remote signer")
	}
	if resp.IsError() {
		return Metadata{}, decodeError(resp)
	}
	return meta, nil
}

// SignTransaction asks the server to sign a single transaction.
func (c *Client) SignTransaction(ctx context.Context, tx []byte) ([]byte, error) {
	var out SignTransactionResponse
	err := c.post(ctx, Request{
		Operation:   OpSignTransaction,
		Transaction: base64.StdEncoding.EncodeToString(tx),
	}, &out)
	if err != nil {
		return nil, err
	}
	return decodeField(out.SignedTransaction, "signedTransaction")
}

// SignAllTransactions asks the server to sign a batch, preserving order.
func (c *Client) SignAllTransactions(ctx context.Context, txs [][]byte) ([][]byte, error) {
	encoded := make([]string, len(txs))
	for i, tx := range txs {
		encoded[i] = base64.StdEncoding.EncodeToString(tx)
	}

	var out SignAllTransactionsResponse
	err := c.post(ctx, Request{
		Operation:    OpSignAllTransactions,
		Transactions: encoded,
	}, &out)
	if err != nil {
		return nil, err
	}

	signed := make([][]byte, len(out.SignedTransactions))
	for i, s := range out.SignedTransactions {
		tx, err := decodeField(s, "signedTransactions")
		if err != nil {
			return nil, err
		}
		signed[i] = tx
	}
	return signed, nil
}

// SignMessage asks the server for a detached signature over message.
func (c *Client) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	var out SignMessageResponse
	err := c.post(ctx, Request{
		Operation: OpSignMessage,
		Message:   base64.StdEncoding.EncodeToString(message),
	}, &out)
	if err != nil {
		return nil, err
	}
	return decodeField(out.Signature, "signature")
}

// SignAndSend asks the server to sign and broadcast, returning the
// transaction signature reported by the RPC node.
func (c *Client) SignAndSend(ctx context.Context, tx []byte, opts SendOptions) (string, error) {
	var out SignAndSendResponse
	err := c.post(ctx, Request{
		Operation:   OpSignAndSend,
		Transaction: base64.StdEncoding.EncodeToString(tx),
		Options:     opts,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Signature, nil
}

func (c *Client) post(ctx context.Context, req Request, result any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		Post("/")
	if err != nil {
		return errors.Wrapf(err, "failed to reach remote signer for %s", req.Operation)
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// decodeError turns the server's error envelope back into a coded error. A
// body that does not parse falls back to the status-derived code so callers
// always see a classifiable failure.
func decodeError(resp *resty.Response) error {
	var body ErrorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error.Code != "" {
		cerr := connerr.New(connerr.Code(body.Error.Code), body.Error.Message)
		cerr.Details = body.Error.Details
		return cerr
	}
	return connerr.Newf(connerr.CodeForStatus(resp.StatusCode()),
		"remote signer returned status %d", resp.StatusCode())
}

func decodeField(encoded, field string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, connerr.Newf(connerr.CodeInvalidRequest,
			"remote signer response field %s is not valid base64", field)
	}
	return raw, nil
}
