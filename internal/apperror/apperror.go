// Package apperror holds the failure taxonomy shared by the engines and the
// HTTP transport. Every error that crosses a package boundary carries a Kind.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	NotFound      Kind = "NOT_FOUND"
	InvalidInput  Kind = "INVALID_INPUT"
	Unauthorized  Kind = "UNAUTHORIZED"
	Forbidden     Kind = "FORBIDDEN"
	PaymentFailed Kind = "PAYMENT_FAILED"
	ProviderError Kind = "PROVIDER_ERROR"
	EmptyCart     Kind = "EMPTY_CART"
	ServerError   Kind = "SERVER_ERROR"
)

// Error implements error so a bare Kind can be used as an errors.Is target.
func (k Kind) Error() string {
	return string(k)
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and message, or a bare Kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind && e.Message == t.Message
	}
	return false
}

// KindOf returns the kind of the first *Error in the chain, ServerError otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ServerError
}

// MessageOf returns the public message of err. Errors without a kind get a
// generic message so internals never leak to clients.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal server error"
}

// HTTPStatus maps a kind to the status code the REST surface answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case InvalidInput, EmptyCart:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case PaymentFailed:
		return http.StatusPaymentRequired
	case ProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type body struct {
	Error payload `json:"error"`
}

type payload struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// WriteJSON renders err as {"error": {"kind", "message"}} with the matching status.
func WriteJSON(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(kind))
	_ = json.NewEncoder(w).Encode(body{Error: payload{Kind: kind, Message: MessageOf(err)}})
}
