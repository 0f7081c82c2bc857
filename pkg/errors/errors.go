package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"time"

	"mcp-zyte-fetch-service/internal/models"
)

// ErrorCategory represents different types of errors in the system
type ErrorCategory string

const (
	// Missing or invalid configuration
	ErrorCategoryConfig ErrorCategory = "config"
	// Tool argument validation errors
	ErrorCategoryValidation ErrorCategory = "validation"
	// Outbound request failures (dial, read, timeout)
	ErrorCategoryTransport ErrorCategory = "transport"
	// System/internal errors
	ErrorCategorySystem ErrorCategory = "system"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// StructuredError represents a structured error with additional context
type StructuredError struct {
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Recoverable bool                   `json:"recoverable"`
	Cause       error                  `json:"-"`
}

// Error implements the error interface
func (se *StructuredError) Error() string {
	if se.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", se.Category, se.Code, se.Message, se.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", se.Category, se.Code, se.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (se *StructuredError) Unwrap() error {
	return se.Cause
}

// PayloadType maps the error to the "type" field of an error payload
func (se *StructuredError) PayloadType() string {
	switch se.Category {
	case ErrorCategoryConfig:
		return models.ErrorTypeConfig
	case ErrorCategoryValidation:
		return models.ErrorTypeValidation
	case ErrorCategoryTransport:
		if se.Code == ErrCodeTimeout {
			return models.ErrorTypeTimeout
		}
		return models.ErrorTypeTransport
	default:
		if se.Code == ErrCodeToolTimeout {
			return models.ErrorTypeTimeout
		}
		return models.ErrorTypeSystem
	}
}

// ToPayload converts the error to the text payload returned to tool callers
func (se *StructuredError) ToPayload() models.ErrorPayload {
	message := se.Message
	if se.Cause != nil {
		message = fmt.Sprintf("%s: %v", se.Message, se.Cause)
	}
	return models.ErrorPayload{
		Error: message,
		Type:  se.PayloadType(),
	}
}

// NewStructuredError creates a new structured error
func NewStructuredError(category ErrorCategory, severity ErrorSeverity, code, message string) *StructuredError {
	return &StructuredError{
		Category:    category,
		Severity:    severity,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		Recoverable: severity != ErrorSeverityCritical,
		Context:     make(map[string]interface{}),
	}
}

// WithDetails adds details to the error
func (se *StructuredError) WithDetails(details string) *StructuredError {
	se.Details = details
	return se
}

// WithContext adds context information to the error
func (se *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if se.Context == nil {
		se.Context = make(map[string]interface{})
	}
	se.Context[key] = value
	return se
}

// WithCause sets the underlying cause error
func (se *StructuredError) WithCause(err error) *StructuredError {
	se.Cause = err
	return se
}

// IsRecoverable returns whether the error is recoverable
func (se *StructuredError) IsRecoverable() bool {
	return se.Recoverable
}

// NewConfigError creates a configuration related error
func NewConfigError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryConfig, ErrorSeverityHigh, code, message).WithCause(err)
}

// NewValidationError creates a validation related error
func NewValidationError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryValidation, ErrorSeverityLow, code, message).WithCause(err)
}

// NewTransportError creates an outbound request error. Timeouts are classified
// by inspecting the cause.
func NewTransportError(message string, err error) *StructuredError {
	code := ErrCodeRequestFailed
	if IsTimeout(err) {
		code = ErrCodeTimeout
	}
	return NewStructuredError(ErrorCategoryTransport, ErrorSeverityMedium, code, message).WithCause(err)
}

// NewSystemError creates a system/internal error
func NewSystemError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategorySystem, ErrorSeverityCritical, code, message).WithCause(err)
}

// AsStructured returns the first StructuredError in err's chain
func AsStructured(err error) (*StructuredError, bool) {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsTimeout reports whether err was caused by a deadline or network timeout
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// Common error codes
const (
	// Config error codes
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"

	// Validation error codes
	ErrCodeInvalidParams = "INVALID_PARAMS"
	ErrCodeInvalidMode   = "INVALID_MODE"
	ErrCodeToolNotFound  = "TOOL_NOT_FOUND"

	// Transport error codes
	ErrCodeRequestFailed = "REQUEST_FAILED"
	ErrCodeTimeout       = "TIMEOUT"

	// System error codes
	ErrCodeToolTimeout          = "TOOL_TIMEOUT"
	ErrCodeSerializationFailed  = "TOOL_RESULT_SERIALIZATION_FAILED"
	ErrCodeInitializationFailed = "INITIALIZATION_FAILED"
)
