package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can branch on retryability and HTTP
// status without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConfiguration
	KindAuthentication
	KindNotFound
	KindUpstream
)

type Error struct {
	Kind  Kind
	Field string // set for validation errors
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Msg: msg}
}

func Configuration(msg string) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

// KindOf walks the wrap chain and returns the first tagged kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Retryable reports whether a redelivery of the same input can succeed.
// Bad input and bad credentials are terminal; everything else (store
// errors, provider errors, untagged failures) is worth another attempt.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindAuthentication, KindNotFound:
		return false
	}
	return true
}
