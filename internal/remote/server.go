package remote

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"

	"github.com/solkit/connectord/internal/connerr"
)

// Policy lets deployments veto payloads after authorization and before the
// provider is invoked. A nil hook allows everything; a non-nil error vetoes.
type Policy struct {
	ValidateTransaction func(ctx context.Context, tx []byte) error
	ValidateMessage     func(ctx context.Context, message []byte) error
}

// ServerConfig parameterizes the route handler factory.
type ServerConfig struct {
	// AuthSecret is the bearer token requests must present. An empty secret
	// means reject-all, never allow-all.
	AuthSecret string

	// Authorize overrides the default bearer-token check when set.
	Authorize func(r *http.Request) error

	// Provider selects the server-held signer.
	Provider ProviderConfig

	// RPCURL enables signAndSendTransaction; empty disables it.
	RPCURL string

	// Name and Icon are advertised in the metadata response.
	Name string
	Icon string

	// Chains lists supported cluster IDs; defaults to mainnet.
	Chains []string

	// Policy holds the optional veto hooks.
	Policy Policy
}

// Server hosts the remote signer HTTP contract: GET for metadata and POST
// for the signing operations.
type Server struct {
	cfg         ServerConfig
	engine      *echo.Echo
	broadcaster *rpcBroadcaster
}

// NewServer builds the routes. The provider itself is loaded lazily on the
// first authorized request and cached process-wide.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Name == "" {
		cfg.Name = "Remote Signer"
	}
	if len(cfg.Chains) == 0 {
		cfg.Chains = []string{"solana:mainnet"}
	}
	if cfg.AuthSecret == "" && cfg.Authorize == nil {
		log.Warn("remote signer has no auth secret configured: all requests will be rejected")
	}

	s := &Server{cfg: cfg}
	if cfg.RPCURL != "" {
		s.broadcaster = newRPCBroadcaster(cfg.RPCURL)
	}

	engine := echo.New()
	engine.HideBanner = true
	engine.HidePort = true
	engine.GET("/", s.handleMetadata, s.requestID, s.authorize)
	engine.POST("/", s.handleOperation, s.requestID, s.authorize)
	s.engine = engine
	return s
}

// Handler exposes the routes as a plain http.Handler, for embedding into an
// existing mux or an httptest server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	log.WithField("addr", addr).Info("remote signer listening")
	return s.engine.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.engine.Shutdown(ctx)
}

// requestID tags each request for log correlation.
func (s *Server) requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set("request_id", uuid.New().String())
		return next(c)
	}
}

// authorize runs before any signer work. Default behavior compares the
// bearer token against the configured secret in constant time; a missing
// secret rejects everything.
func (s *Server) authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.cfg.Authorize != nil {
			if err := s.cfg.Authorize(c.Request()); err != nil {
				return s.writeError(c, connerr.Wrap(err, connerr.CodeUnauthorized, "authorization rejected"))
			}
			return next(c)
		}

		if s.cfg.AuthSecret == "" {
			return s.writeError(c, connerr.New(connerr.CodeUnauthorized,
				"remote signer is not configured with a secret"))
		}

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return s.writeError(c, connerr.New(connerr.CodeUnauthorized,
				"missing bearer token"))
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthSecret)) != 1 {
			return s.writeError(c, connerr.New(connerr.CodeUnauthorized,
				"invalid bearer token"))
		}
		return next(c)
	}
}

func (s *Server) loadProvider(c echo.Context) (Provider, error) {
	provider, err := LoadProvider(s.cfg.Provider)
	if err != nil {
		s.logger(c).WithError(err).Error("provider initialization failed")
		return nil, connerr.Wrap(err, connerr.CodeProviderUnavailable,
			"signer provider failed to initialize")
	}
	return provider, nil
}

func (s *Server) handleMetadata(c echo.Context) error {
	provider, err := s.loadProvider(c)
	if err != nil {
		return s.writeError(c, err)
	}
	if !provider.Available(c.Request().Context()) {
		return s.writeError(c, connerr.New(connerr.CodeProviderUnavailable,
			"signer provider is not available"))
	}

	return c.JSON(http.StatusOK, Metadata{
		Address: provider.Address(),
		Chains:  s.cfg.Chains,
		Capabilities: Capabilities{
			SignTransaction:     true,
			SignAllTransactions: true,
			SignMessage:         true,
			SignAndSend:         s.broadcaster != nil,
		},
		Name: s.cfg.Name,
		Icon: s.cfg.Icon,
	})
}

func (s *Server) handleOperation(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, connerr.Wrap(err, connerr.CodeInvalidRequest, "malformed request body"))
	}

	provider, err := s.loadProvider(c)
	if err != nil {
		return s.writeError(c, err)
	}

	logger := s.logger(c).WithField("operation", req.Operation)

	switch req.Operation {
	case OpSignTransaction:
		return s.signTransaction(c, provider, req, logger)
	case OpSignAllTransactions:
		return s.signAllTransactions(c, provider, req, logger)
	case OpSignMessage:
		return s.signMessage(c, provider, req, logger)
	case OpSignAndSend:
		return s.signAndSend(c, provider, req, logger)
	default:
		return s.writeError(c, connerr.Newf(connerr.CodeInvalidOperation,
			"unsupported operation %q", req.Operation))
	}
}

func (s *Server) signTransaction(c echo.Context, provider Provider, req Request, logger *log.Entry) error {
	ctx := c.Request().Context()
	tx, err := decodePayload(req.Transaction, "transaction")
	if err != nil {
		return s.writeError(c, err)
	}
	if err := s.checkTransactionPolicy(ctx, tx); err != nil {
		return s.writeError(c, err)
	}

	signed, err := provider.SignTransaction(ctx, tx)
	if err != nil {
		logger.WithError(err).Error("signing failed")
		return s.writeError(c, asSigningError(err))
	}

	logger.Info("transaction signed")
	return c.JSON(http.StatusOK, SignTransactionResponse{
		SignedTransaction: base64.StdEncoding.EncodeToString(signed),
	})
}

func (s *Server) signAllTransactions(c echo.Context, provider Provider, req Request, logger *log.Entry) error {
	ctx := c.Request().Context()
	if len(req.Transactions) == 0 {
		return s.writeError(c, connerr.New(connerr.CodeInvalidRequest, "transactions must not be empty"))
	}

	// Validate every item before any signing begins so the batch is atomic
	// with respect to policy.
	txs := make([][]byte, 0, len(req.Transactions))
	for i, encoded := range req.Transactions {
		tx, err := decodePayload(encoded, "transaction")
		if err != nil {
			return s.writeError(c, connerr.Newf(connerr.CodeInvalidRequest,
				"transaction %d of %d is not valid base64", i+1, len(req.Transactions)))
		}
		txs = append(txs, tx)
	}
	for i, tx := range txs {
		if err := s.checkTransactionPolicy(ctx, tx); err != nil {
			return s.writeError(c, connerr.Newf(connerr.CodePolicyViolation,
				"transaction %d of %d rejected by policy", i+1, len(txs)))
		}
	}

	signed, err := provider.SignAllTransactions(ctx, txs)
	if err != nil {
		logger.WithError(err).Error("batch signing failed")
		return s.writeError(c, asSigningError(err))
	}

	encoded := make([]string, len(signed))
	for i, tx := range signed {
		encoded[i] = base64.StdEncoding.EncodeToString(tx)
	}
	logger.WithField("count", len(encoded)).Info("batch signed")
	return c.JSON(http.StatusOK, SignAllTransactionsResponse{SignedTransactions: encoded})
}

func (s *Server) signMessage(c echo.Context, provider Provider, req Request, logger *log.Entry) error {
	ctx := c.Request().Context()
	message, err := decodePayload(req.Message, "message")
	if err != nil {
		return s.writeError(c, err)
	}
	if s.cfg.Policy.ValidateMessage != nil {
		if err := s.cfg.Policy.ValidateMessage(ctx, message); err != nil {
			return s.writeError(c, connerr.Wrap(err, connerr.CodePolicyViolation,
				"message rejected by policy"))
		}
	}

	sig, err := provider.SignMessage(ctx, message)
	if err != nil {
		logger.WithError(err).Error("message signing failed")
		return s.writeError(c, asSigningError(err))
	}

	return c.JSON(http.StatusOK, SignMessageResponse{
		Signature: base64.StdEncoding.EncodeToString(sig),
	})
}

func (s *Server) signAndSend(c echo.Context, provider Provider, req Request, logger *log.Entry) error {
	ctx := c.Request().Context()
	if s.broadcaster == nil {
		return s.writeError(c, connerr.New(connerr.CodeInvalidOperation,
			"signAndSendTransaction requires the server to be configured with an RPC URL"))
	}

	tx, err := decodePayload(req.Transaction, "transaction")
	if err != nil {
		return s.writeError(c, err)
	}
	if err := s.checkTransactionPolicy(ctx, tx); err != nil {
		return s.writeError(c, err)
	}

	signed, err := provider.SignTransaction(ctx, tx)
	if err != nil {
		logger.WithError(err).Error("signing failed")
		return s.writeError(c, asSigningError(err))
	}

	sig, err := s.broadcaster.SendTransaction(ctx, signed, req.Options)
	if err != nil {
		logger.WithError(err).Error("broadcast failed")
		return s.writeError(c, err)
	}

	logger.WithField("signature", sig).Info("transaction sent")
	return c.JSON(http.StatusOK, SignAndSendResponse{Signature: sig})
}

func (s *Server) checkTransactionPolicy(ctx context.Context, tx []byte) error {
	if s.cfg.Policy.ValidateTransaction == nil {
		return nil
	}
	if err := s.cfg.Policy.ValidateTransaction(ctx, tx); err != nil {
		return connerr.Wrap(err, connerr.CodePolicyViolation, "transaction rejected by policy")
	}
	return nil
}

func (s *Server) logger(c echo.Context) *log.Entry {
	id, _ := c.Get("request_id").(string)
	return log.WithField("request_id", id)
}

// writeError renders the uniform error envelope with the status mapped from
// the error's code.
func (s *Server) writeError(c echo.Context, err error) error {
	code := connerr.CodeOf(err)
	if code == "" {
		code = connerr.CodeProviderError
	}

	detail := ErrorDetail{Code: string(code), Message: err.Error()}
	var cerr *connerr.Error
	if stderrors.As(err, &cerr) {
		detail.Message = cerr.Message
		detail.Details = cerr.Details
		if cause := cerr.Unwrap(); cause != nil {
			detail.Details = cause.Error()
		}
	}

	return c.JSON(connerr.HTTPStatus(code), ErrorBody{Error: detail})
}

func decodePayload(encoded, field string) ([]byte, error) {
	if encoded == "" {
		return nil, connerr.Newf(connerr.CodeInvalidRequest, "missing %s payload", field)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, connerr.Newf(connerr.CodeInvalidRequest, "%s is not valid base64", field)
	}
	return raw, nil
}

// asSigningError preserves an existing code or defaults to SIGNING_FAILED.
func asSigningError(err error) error {
	if connerr.CodeOf(err) != "" {
		return err
	}
	return connerr.Wrap(err, connerr.CodeSigningFailed, "provider signing failed")
}
