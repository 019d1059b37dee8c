package contract

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failures the collaborator boundary reports.
type Kind int

const (
	Internal Kind = iota
	NotFound
	Validation
	Constraint
	PermissionDenied
	Conflict
	InvalidCredentials
	SessionMissing
	SessionExpired
	InvalidCode
	RateLimited
	Unavailable
)

var kindNames = map[Kind]string{
	Internal:           "internal",
	NotFound:           "not_found",
	Validation:         "validation",
	Constraint:         "constraint",
	PermissionDenied:   "permission_denied",
	Conflict:           "conflict",
	InvalidCredentials: "invalid_credentials",
	SessionMissing:     "session_missing",
	SessionExpired:     "session_expired",
	InvalidCode:        "invalid_code",
	RateLimited:        "rate_limited",
	Unavailable:        "unavailable",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Error struct {
	Kind    Kind
	Field   string // column or form field involved, if known
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so errors.Is(err, ErrNotFound) works for any not-found.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func FieldError(kind Kind, field, msg string) *Error {
	return &Error{Kind: kind, Field: field, Message: msg}
}

// KindOf reports Internal for errors that did not cross the boundary typed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

var (
	ErrNotFound           = &Error{Kind: NotFound}
	ErrPermissionDenied   = &Error{Kind: PermissionDenied}
	ErrConflict           = &Error{Kind: Conflict}
	ErrInvalidCredentials = &Error{Kind: InvalidCredentials}
	ErrSessionMissing     = &Error{Kind: SessionMissing}
	ErrSessionExpired     = &Error{Kind: SessionExpired}
	ErrInvalidCode        = &Error{Kind: InvalidCode}
	ErrRateLimited        = &Error{Kind: RateLimited}
)
