// Package remote implements the remote signer protocol: a small JSON/HTTP
// request-response contract that lets a server-held key sign on behalf of a
// thin client. The package provides both sides: an echo-based route handler
// factory for the server and a resty-based client that can impersonate a
// wallet in the connector's registry.
package remote

// Operation names accepted by the POST endpoint.
const (
	OpSignTransaction     = "signTransaction"
	OpSignAllTransactions = "signAllTransactions"
	OpSignMessage         = "signMessage"
	OpSignAndSend         = "signAndSendTransaction"
)

// Request is the POST envelope. Exactly one payload field is meaningful for
// a given operation; all payloads are base64.
type Request struct {
	Operation    string      `json:"operation"`
	Transaction  string      `json:"transaction,omitempty"`
	Transactions []string    `json:"transactions,omitempty"`
	Message      string      `json:"message,omitempty"`
	Options      SendOptions `json:"options,omitempty"`
}

// SendOptions carries broadcast preferences for signAndSendTransaction.
type SendOptions struct {
	SkipPreflight bool   `json:"skipPreflight,omitempty"`
	Commitment    string `json:"commitment,omitempty"`
}

// Capabilities advertises which operations the server supports.
type Capabilities struct {
	SignTransaction     bool `json:"signTransaction"`
	SignAllTransactions bool `json:"signAllTransactions"`
	SignMessage         bool `json:"signMessage"`
	SignAndSend         bool `json:"signAndSendTransaction"`
}

// Metadata is the GET response describing the server-held signer.
type Metadata struct {
	Address      string       `json:"address"`
	Chains       []string     `json:"chains"`
	Capabilities Capabilities `json:"capabilities"`
	Name         string       `json:"name"`
	Icon         string       `json:"icon,omitempty"`
}

// SignTransactionResponse answers OpSignTransaction.
type SignTransactionResponse struct {
	SignedTransaction string `json:"signedTransaction"`
}

// SignAllTransactionsResponse answers OpSignAllTransactions, ordered like
// the request.
type SignAllTransactionsResponse struct {
	SignedTransactions []string `json:"signedTransactions"`
}

// SignMessageResponse answers OpSignMessage.
type SignMessageResponse struct {
	Signature string `json:"signature"`
}

// SignAndSendResponse answers OpSignAndSend with the transaction signature
// as returned by the RPC node.
type SignAndSendResponse struct {
	Signature string `json:"signature"`
}

// ErrorBody is the uniform error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code alongside the message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
