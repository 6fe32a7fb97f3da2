package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	// ErrorTypeStructural covers cycles, dangling references and missing roots.
	ErrorTypeStructural ErrorType = "structural"
	// ErrorTypePermission covers placement rule denials.
	ErrorTypePermission ErrorType = "permission"
	// ErrorTypeResolution covers unknown component types.
	ErrorTypeResolution ErrorType = "resolution"
	// ErrorTypeNetwork covers failed calls to the page/media backend.
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeState covers operations rejected because of session state,
	// such as mutations while editing is disabled.
	ErrorTypeState    ErrorType = "state"
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes.
const (
	CodeInvalidParent     = "ERR_INVALID_PARENT"
	CodeUnknownType       = "ERR_UNKNOWN_TYPE"
	CodeCycleDetected     = "ERR_CYCLE_DETECTED"
	CodeNotDraggable      = "ERR_NOT_DRAGGABLE"
	CodeNotDroppable      = "ERR_NOT_DROPPABLE"
	CodeNodeNotFound      = "ERR_NODE_NOT_FOUND"
	CodeNotDeletable      = "ERR_NOT_DELETABLE"
	CodeEditingDisabled   = "ERR_EDITING_DISABLED"
	CodeMissingRoot       = "ERR_MISSING_ROOT"
	CodeDanglingReference = "ERR_DANGLING_REFERENCE"
	CodeMalformed         = "ERR_MALFORMED_DOCUMENT"
	CodeRegistryFrozen    = "ERR_REGISTRY_FROZEN"
	CodeInvalidProps      = "ERR_INVALID_PROPS"
	CodeBackend           = "ERR_BACKEND"
	CodeLayoutNotFound    = "ERR_LAYOUT_NOT_FOUND"
)

// Sentinels for errors.Is. Matching compares Type and Code only, so any
// EditorError built with the same code matches regardless of message.
var (
	ErrInvalidParent     = &EditorError{Type: ErrorTypePermission, Code: CodeInvalidParent}
	ErrUnknownType       = &EditorError{Type: ErrorTypeResolution, Code: CodeUnknownType}
	ErrCycleDetected     = &EditorError{Type: ErrorTypeStructural, Code: CodeCycleDetected}
	ErrNotDraggable      = &EditorError{Type: ErrorTypePermission, Code: CodeNotDraggable}
	ErrNotDroppable      = &EditorError{Type: ErrorTypePermission, Code: CodeNotDroppable}
	ErrNodeNotFound      = &EditorError{Type: ErrorTypeNotFound, Code: CodeNodeNotFound}
	ErrNotDeletable      = &EditorError{Type: ErrorTypePermission, Code: CodeNotDeletable}
	ErrEditingDisabled   = &EditorError{Type: ErrorTypeState, Code: CodeEditingDisabled}
	ErrMissingRoot       = &EditorError{Type: ErrorTypeStructural, Code: CodeMissingRoot}
	ErrDanglingReference = &EditorError{Type: ErrorTypeStructural, Code: CodeDanglingReference}
	ErrMalformedDocument = &EditorError{Type: ErrorTypeStructural, Code: CodeMalformed}
	ErrRegistryFrozen    = &EditorError{Type: ErrorTypeState, Code: CodeRegistryFrozen}
	ErrInvalidProps      = &EditorError{Type: ErrorTypeValidation, Code: CodeInvalidProps}
	ErrBackend           = &EditorError{Type: ErrorTypeNetwork, Code: CodeBackend}
	ErrLayoutNotFound    = &EditorError{Type: ErrorTypeNotFound, Code: CodeLayoutNotFound}
)

// EditorError is a structured error type with context.
type EditorError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	NodeID      string
	Component   string
	Recoverable bool
}

// Error implements the error interface.
func (e *EditorError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.NodeID != "" {
		parts = append(parts, "node:"+e.NodeID)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *EditorError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *EditorError) Is(target error) bool {
	var t *EditorError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *EditorError) WithContext(key string, value interface{}) *EditorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithNode records the node the error refers to.
func (e *EditorError) WithNode(id string) *EditorError {
	e.NodeID = id

	return e
}

// WithComponent adds component type context.
func (e *EditorError) WithComponent(component string) *EditorError {
	e.Component = component

	return e
}

// WithCause attaches an underlying error.
func (e *EditorError) WithCause(cause error) *EditorError {
	e.Cause = cause

	return e
}

// New creates an error of the given sentinel's kind with a message.
func New(kind *EditorError, message string) *EditorError {
	return &EditorError{
		Type:        kind.Type,
		Code:        kind.Code,
		Message:     message,
		Recoverable: kind.Type != ErrorTypeInternal,
	}
}

// Newf is New with formatting.
func Newf(kind *EditorError, format string, args ...interface{}) *EditorError {
	return New(kind, fmt.Sprintf(format, args...))
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *EditorError {
	return &EditorError{
		Type:        ErrorTypeInternal,
		Code:        "ERR_INTERNAL",
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string, cause error) *EditorError {
	return &EditorError{
		Type:        ErrorTypeValidation,
		Code:        CodeInvalidProps,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewNetworkError creates a backend error. The local edit state is left
// intact by every caller, so these are always recoverable.
func NewNetworkError(message string, cause error) *EditorError {
	return &EditorError{
		Type:        ErrorTypeNetwork,
		Code:        CodeBackend,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal when err is
// not an EditorError.
func TypeOf(err error) ErrorType {
	var ee *EditorError
	if errors.As(err, &ee) {
		return ee.Type
	}

	return ErrorTypeInternal
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ee *EditorError
	if errors.As(err, &ee) {
		return ee.Recoverable
	}

	return false
}

// IsPermission reports whether err is a placement rule denial.
func IsPermission(err error) bool {
	return TypeOf(err) == ErrorTypePermission
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level that matches its category. Permission and
// resolution errors are expected during normal editing and only warn.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ee *EditorError
	if !errors.As(err, &ee) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch ee.Type {
	case ErrorTypePermission, ErrorTypeResolution, ErrorTypeValidation, ErrorTypeState, ErrorTypeNotFound:
		h.logger.Warn(ctx, err, "Operation rejected",
			"type", ee.Type,
			"code", ee.Code,
			"node", ee.NodeID)
	case ErrorTypeStructural:
		h.logger.Warn(ctx, err, "Structural error occurred",
			"type", ee.Type,
			"code", ee.Code,
			"node", ee.NodeID)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", ee.Type,
			"code", ee.Code,
			"component", ee.Component)
	}
}
