package service

import (
	"errors"
	"fmt"
)

// Kind classifies an outcome so callers can decide whether to retry, wait, or ask for
// new input.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindRateLimited  Kind = "rate_limited"
	KindQueueFull    Kind = "queue_full"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindStoreFailure Kind = "store_failure"
)

// Reasons refine a Kind.
const (
	ReasonDuplicate = "duplicate"
	ReasonBurst     = "burst"
	ReasonSustained = "sustained"
	ReasonNoEntries = "no_entries"
	ReasonPlayed    = "played"
)

// Error is the typed outcome of a rejected queue operation.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind, and on Reason when the target sets one, so
// errors.Is(err, ErrRateLimited) and errors.Is(err, ErrBurst) both work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrRateLimited  = &Error{Kind: KindRateLimited}
	ErrDuplicate    = &Error{Kind: KindRateLimited, Reason: ReasonDuplicate}
	ErrBurst        = &Error{Kind: KindRateLimited, Reason: ReasonBurst}
	ErrSustained    = &Error{Kind: KindRateLimited, Reason: ReasonSustained}
	ErrQueueFull    = &Error{Kind: KindQueueFull}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrNoEntries    = &Error{Kind: KindNotFound, Reason: ReasonNoEntries}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrStoreFailure = &Error{Kind: KindStoreFailure}
)

// KindOf returns the Kind of err, or KindStoreFailure for errors that did not come
// from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}

// ReasonOf returns the Reason of err, or "".
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

func newError(kind Kind, reason, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func invalidInput(format string, args ...any) *Error {
	return newError(KindInvalidInput, "", format, args...)
}

func storeFailure(op string, err error) *Error {
	return &Error{Kind: KindStoreFailure, Message: "store failure: " + op, Err: err}
}
