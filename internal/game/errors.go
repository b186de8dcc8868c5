package game

import (
	"errors"
	"fmt"
)

// Kind classifies a request-scoped failure. Transports map kinds to status codes.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindInvalidPhase        Kind = "invalid_phase"
	KindConflict            Kind = "conflict"
	KindDuplicateSubmission Kind = "duplicate_submission"
	KindCapacityExceeded    Kind = "capacity_exceeded"
	KindSelfVote            Kind = "self_vote"
	KindUnauthorized        Kind = "unauthorized"
	KindValidation          Kind = "validation"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, game.ErrNotFound).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrInvalidPhase        = &Error{Kind: KindInvalidPhase}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrDuplicateSubmission = &Error{Kind: KindDuplicateSubmission}
	ErrCapacityExceeded    = &Error{Kind: KindCapacityExceeded}
	ErrSelfVote            = &Error{Kind: KindSelfVote}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrValidation          = &Error{Kind: KindValidation}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or an empty Kind for foreign errors.
func KindOf(err error) Kind {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return ""
}
