// Package apperrors defines the closed set of error kinds the service
// layer raises and the API layer dispatches on. Handlers branch on the
// kind and the entity, never on message text.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind tags an error with its place in the taxonomy.
type Kind int

const (
	// KindInternal is an unexpected database or logic failure.
	KindInternal Kind = iota
	// KindNotFound means an entity id or key is absent.
	KindNotFound
	// KindConflict means the entity is already in the requested state,
	// e.g. already borrowed, already paid, already returned.
	KindConflict
	// KindInvalidInput means a required field is missing or malformed.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindInvalidInput:
		return "INVALID_INPUT"
	default:
		return "INTERNAL"
	}
}

// Error carries the kind plus structured context about which entity and
// key the operation failed on.
type Error struct {
	Kind   Kind
	Entity string
	Key    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Reason
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Entity != "" && e.Key != "" {
		return fmt.Sprintf("%s %q: %s", e.Entity, e.Key, msg)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s", e.Entity, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports an absent entity.
func NotFound(entity, key string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Key: key, Reason: "not found"}
}

// Conflict reports an entity already in the requested state.
func Conflict(entity, key, reason string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, Key: key, Reason: reason}
}

// InvalidInput reports a rejected field.
func InvalidInput(entity, reason string) *Error {
	return &Error{Kind: KindInvalidInput, Entity: entity, Reason: reason}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf extracts the kind from err, defaulting to KindInternal for
// errors raised outside this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// EntityOf extracts the entity name from err, or "" if untagged.
func EntityOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Entity
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
