package model

import (
	"errors"
	"fmt"
)

// ErrorKind is one of the five failure classes the return workflow exposes.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "invalid_input"
	KindNotFound          ErrorKind = "not_found"
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindOperationConflict ErrorKind = "operation_conflict"
	KindOperationError    ErrorKind = "operation_error"
)

// Error codes
const (
	ErrCodeInvalidInput      = "RET001"
	ErrCodeNotFound          = "RET002"
	ErrCodePermissionDenied  = "RET003"
	ErrCodeOperationConflict = "RET004"
	ErrCodeOperationError    = "RET005"
)

// Sentinels, one per kind. errors.Is(err, ErrNotFound) matches any
// *ReturnError of that kind.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrOperationConflict = errors.New("operation conflict")
	ErrOperationError    = errors.New("operation error")
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidInput:      ErrInvalidInput,
	KindNotFound:          ErrNotFound,
	KindPermissionDenied:  ErrPermissionDenied,
	KindOperationConflict: ErrOperationConflict,
	KindOperationError:    ErrOperationError,
}

// ReturnError custom error type
type ReturnError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string]string // per-field details, InvalidInput only
	Err     error
}

func (e *ReturnError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ReturnError) Unwrap() error {
	return e.Err
}

func (e *ReturnError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the kind of a *ReturnError anywhere in err's chain,
// and KindOperationError for anything else.
func KindOf(err error) ErrorKind {
	var re *ReturnError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindOperationError
}

// Error constructors
func NewInvalidInputError(message string, fields map[string]string) *ReturnError {
	return &ReturnError{
		Kind:    KindInvalidInput,
		Code:    ErrCodeInvalidInput,
		Message: message,
		Fields:  fields,
	}
}

func NewNotFoundError(message string) *ReturnError {
	return &ReturnError{
		Kind:    KindNotFound,
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

func NewPermissionDeniedError(message string) *ReturnError {
	return &ReturnError{
		Kind:    KindPermissionDenied,
		Code:    ErrCodePermissionDenied,
		Message: message,
	}
}

func NewConflictError(message string) *ReturnError {
	return &ReturnError{
		Kind:    KindOperationConflict,
		Code:    ErrCodeOperationConflict,
		Message: message,
	}
}

// NewOperationError wraps an unexpected store failure. The cause is kept for
// logging; only message reaches clients.
func NewOperationError(message string, cause error) *ReturnError {
	return &ReturnError{
		Kind:    KindOperationError,
		Code:    ErrCodeOperationError,
		Message: message,
		Err:     cause,
	}
}
