// Package connerr defines the coded error taxonomy shared by the connector
// core and the remote signer protocol. Every failure a caller can observe
// carries one of these codes so it is classifiable both in-process (errors.As)
// and over the wire (the remote signer's JSON error body).
package connerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure category.
type Code string

const (
	CodeWalletNotFound      Code = "WALLET_NOT_FOUND"
	CodeConnectionFailed    Code = "CONNECTION_FAILED"
	CodeConnectionInFlight  Code = "CONNECTION_IN_FLIGHT"
	CodeAccountNotFound     Code = "ACCOUNT_NOT_FOUND"
	CodeClusterNotFound     Code = "CLUSTER_NOT_FOUND"
	CodeFeatureNotSupported Code = "FEATURE_NOT_SUPPORTED"
	CodeSigningFailed       Code = "SIGNING_FAILED"
	CodeSendFailed          Code = "SEND_FAILED"

	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeInvalidRequest      Code = "INVALID_REQUEST"
	CodePolicyViolation     Code = "POLICY_VIOLATION"
	CodeInvalidOperation    Code = "INVALID_OPERATION"
	CodeProviderError       Code = "PROVIDER_ERROR"
	CodeProviderRateLimited Code = "PROVIDER_RATE_LIMITED"
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
)

// Error is a coded error. Details is optional free-form context that survives
// the trip through the remote signer's JSON error body.
type Error struct {
	Code    Code
	Message string
	Details string
	cause   error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches two coded errors by code, so sentinel-style comparisons like
// errors.Is(err, connerr.New(connerr.CodeAccountNotFound, "")) work without
// the message having to match.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the code from err, or empty string if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps a code to the status the remote signer protocol uses for it.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodePolicyViolation:
		return http.StatusForbidden
	case CodeInvalidRequest, CodeInvalidOperation:
		return http.StatusBadRequest
	case CodeProviderRateLimited:
		return http.StatusTooManyRequests
	case CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeForStatus is the inverse mapping, used by the remote signer client when
// the server's error body is missing or unparseable.
func CodeForStatus(status int) Code {
	switch status {
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodePolicyViolation
	case http.StatusBadRequest:
		return CodeInvalidRequest
	case http.StatusTooManyRequests:
		return CodeProviderRateLimited
	case http.StatusServiceUnavailable:
		return CodeProviderUnavailable
	default:
		return CodeProviderError
	}
}
