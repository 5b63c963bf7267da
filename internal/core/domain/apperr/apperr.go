package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure independently of the layer that produced it.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindDeliveryFailure Kind = "delivery_failure"
	KindInternal        Kind = "internal"
)

// Error is the typed error returned by repositories, adapters and services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels for the token and login paths. Callers compare with errors.Is.
var (
	ErrTokenExpired        = &Error{Kind: KindUnauthorized, Message: "token expired"}
	ErrTokenInvalid        = &Error{Kind: KindUnauthorized, Message: "invalid token"}
	ErrRefreshTokenExpired = &Error{Kind: KindUnauthorized, Message: "refresh token expired"}
	ErrMalformedToken      = &Error{Kind: KindUnauthorized, Message: "malformed token"}
	ErrInvalidCredentials  = &Error{Kind: KindUnauthorized, Message: "invalid credentials"}
	ErrAccountBlocked      = &Error{Kind: KindUnauthorized, Message: "account temporarily blocked due to multiple failed login attempts"}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func InvalidInput(msg string) *Error { return New(KindInvalidInput, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }

// NotFound builds a not-found error for a named entity.
func NotFound(entity, id string) *Error {
	return New(KindNotFound, fmt.Sprintf("%s with ID %s not found", entity, id))
}

func Internal(msg string, err error) *Error { return Wrap(KindInternal, msg, err) }

func DeliveryFailure(msg string, err error) *Error { return Wrap(KindDeliveryFailure, msg, err) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
// when the chain carries none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
