package remote

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/solkit/connectord/internal/connerr"
)

// custodialProvider brokers signing to a custodial key-management API
// (Fireblocks-style). The custodian holds the key; this provider only moves
// opaque payloads across an authenticated HTTP boundary.
type custodialProvider struct {
	http     *resty.Client
	walletID string
	address  string
}

type custodialSignRequest struct {
	WalletID string `json:"wallet_id"`
	Payload  string `json:"payload"`
	Kind     string `json:"kind"` // "transaction" or "message"
}

type custodialSignResponse struct {
	Signed string `json:"signed"`
}

type custodialWalletResponse struct {
	Address string `json:"address"`
}

type custodialErrorResponse struct {
	Message string `json:"message"`
}

// newCustodialProvider builds a provider from "api_url", "api_key" and
// "wallet_id" settings. The custodian is contacted once at construction to
// resolve the wallet's address; a failure here is a configuration problem
// and is reported as such.
func newCustodialProvider(cfg ProviderConfig) (Provider, error) {
	apiURL, err := requiredSetting(cfg, "api_url")
	if err != nil {
		return nil, err
	}
	apiKey, err := requiredSetting(cfg, "api_key")
	if err != nil {
		return nil, err
	}
	walletID, err := requiredSetting(cfg, "wallet_id")
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetHostURL(apiURL).
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second)

	p := &custodialProvider{http: client, walletID: walletID}

	var walletResp custodialWalletResponse
	resp, err := client.R().
		SetResult(&walletResp).
		Get("/v1/wallets/" + walletID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reach custodial API at %s", apiURL)
	}
	if resp.IsError() {
		return nil, errors.Errorf(
			"custodial API rejected wallet lookup for %q: HTTP %d; check api_key and wallet_id",
			walletID, resp.StatusCode())
	}
	if walletResp.Address == "" {
		return nil, errors.Errorf("custodial API returned no address for wallet %q", walletID)
	}

	p.address = walletResp.Address
	return p, nil
}

func (p *custodialProvider) Address() string {
	return p.address
}

func (p *custodialProvider) sign(ctx context.Context, payload []byte, kind string) ([]byte, error) {
	var signResp custodialSignResponse
	var errResp custodialErrorResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(custodialSignRequest{
			WalletID: p.walletID,
			Payload:  base64.StdEncoding.EncodeToString(payload),
			Kind:     kind,
		}).
		SetResult(&signResp).
		SetError(&errResp).
		Post("/v1/sign")
	if err != nil {
		return nil, connerr.Wrap(err, connerr.CodeProviderError, "custodial API unreachable")
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, connerr.New(connerr.CodeProviderRateLimited, "custodial API rate limit exceeded")
	}
	if resp.IsError() {
		msg := errResp.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, connerr.Newf(connerr.CodeProviderError, "custodial signing failed: %s", msg)
	}

	signed, err := base64.StdEncoding.DecodeString(signResp.Signed)
	if err != nil {
		return nil, connerr.Wrap(err, connerr.CodeProviderError, "custodial API returned invalid base64")
	}
	return signed, nil
}

func (p *custodialProvider) SignTransaction(ctx context.Context, tx []byte) ([]byte, error) {
	return p.sign(ctx, tx, "transaction")
}

// SignAllTransactions loops over the custodian's single-item endpoint,
// preserving input order.
func (p *custodialProvider) SignAllTransactions(ctx context.Context, txs [][]byte) ([][]byte, error) {
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

func (p *custodialProvider) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	return p.sign(ctx, message, "message")
}

// Available probes the custodian's health endpoint.
func (p *custodialProvider) Available(ctx context.Context) bool {
	resp, err := p.http.R().SetContext(ctx).Get("/v1/health")
	return err == nil && !resp.IsError()
}
