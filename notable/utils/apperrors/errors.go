// Package apperrors holds the error taxonomy shared by stores, the
// summarization proxy and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "validation_error"
	KindAuth       Kind = "auth_error"
	KindNotFound   Kind = "not_found"
	KindStore      Kind = "store_error"
	KindUpstream   Kind = "upstream_error"
	KindConfig     Kind = "config_error"
	KindSummarize  Kind = "summarize_error"
)

// Error is a classified failure. Status is only meaningful for upstream errors,
// where it carries the status code returned by the remote service.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

func Validation(op, msg string) *Error  { return newErr(KindValidation, op, msg, nil) }
func Auth(op, msg string) *Error        { return newErr(KindAuth, op, msg, nil) }
func NotFound(op, msg string) *Error    { return newErr(KindNotFound, op, msg, nil) }
func Store(op string, err error) *Error { return newErr(KindStore, op, "", err) }
func Config(op, msg string) *Error      { return newErr(KindConfig, op, msg, nil) }

func Summarize(op string, err error) *Error {
	return newErr(KindSummarize, op, "summarization failed", err)
}

func AuthWrap(op, msg string, err error) *Error { return newErr(KindAuth, op, msg, err) }

// Upstream records a non-success response from a remote API.
func Upstream(op string, status int, body string) *Error {
	return &Error{Kind: KindUpstream, Op: op, Message: body, Status: status}
}

// KindOf returns the kind of the outermost classified error in the chain, or
// an empty Kind when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Find returns the first classified error of the given kind in err's chain.
func Find(err error, kind Kind) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return nil, false
}

func Is(err error, kind Kind) bool {
	_, ok := Find(err, kind)
	return ok
}

func IsValidation(err error) bool { return Is(err, KindValidation) }
func IsAuth(err error) bool       { return Is(err, KindAuth) }
func IsNotFound(err error) bool   { return Is(err, KindNotFound) }

// IsStore reports persistence failures; not-found counts as one because
// callers do not distinguish the two for retry purposes.
func IsStore(err error) bool { return Is(err, KindStore) || Is(err, KindNotFound) }

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		if e, ok := Find(err, KindUpstream); ok && e.Status >= 400 {
			return e.Status
		}
		return http.StatusBadGateway
	case KindSummarize:
		if e, ok := Find(err, KindUpstream); ok && e.Status >= 400 {
			return e.Status
		}
		if IsValidation(err) {
			return http.StatusBadRequest
		}
		if Is(err, KindConfig) {
			return http.StatusInternalServerError
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text shown to end users; store details stay in the
// logs.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Something went wrong"
	}
	switch e.Kind {
	case KindValidation, KindAuth, KindNotFound, KindConfig, KindUpstream:
		return e.Message
	case KindSummarize:
		if KindOf(e.Err) != "" {
			return PublicMessage(e.Err)
		}
		return "Failed to summarize text"
	default:
		return "Something went wrong"
	}
}
