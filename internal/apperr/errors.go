// Package apperr holds the error taxonomy shared by every layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig is a fatal configuration problem: missing credential, closed spending gate.
	ErrConfig = errors.New("configuration error")
	// ErrTransport covers an unreachable bridge and malformed responses.
	ErrTransport = errors.New("transport error")
	// ErrVersionMismatch means the bridge speaks another protocol version.
	ErrVersionMismatch = errors.New("bridge version mismatch")
	// ErrBridge is a logical error reported by the store.
	ErrBridge = errors.New("bridge error")
	// ErrDuplicate is a store rejection of a note that already exists.
	ErrDuplicate = errors.New("duplicate note")
	// ErrNoContent means the text generator returned nothing usable.
	ErrNoContent = errors.New("no usable content")
	// ErrInvalidInput is a malformed user input.
	ErrInvalidInput = errors.New("invalid input")
)

// BridgeError is an application-level error returned in the bridge envelope.
type BridgeError struct {
	Action  string
	Message string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// Is matches ErrBridge, and ErrDuplicate when the store refused a duplicate.
func (e *BridgeError) Is(target error) bool {
	switch target {
	case ErrBridge:
		return true
	case ErrDuplicate:
		return strings.Contains(strings.ToLower(e.Message), "duplicate")
	}
	return false
}

// InputError describes why user input could not be parsed.
type InputError struct {
	Line int // 1-based, 0 when not tied to a line
	Msg  string
}

func (e *InputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Is matches ErrInvalidInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid builds an InputError without a line reference.
func Invalid(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}
