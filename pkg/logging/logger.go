package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mcp-zyte-fetch-service/pkg/errors"
)

// LogContext represents contextual information for log entries
type LogContext map[string]interface{}

// StructuredLogger provides structured logging capabilities.
// Output always goes to stderr by default: stdout carries the MCP stdio stream.
type StructuredLogger struct {
	logger    zerolog.Logger
	component string
	context   LogContext
	manager   *LoggingManager
}

// NewStructuredLogger creates a new structured logger writing JSON to stderr
func NewStructuredLogger(component string) *StructuredLogger {
	return NewStructuredLoggerWithWriter(component, os.Stderr)
}

// NewStructuredLoggerWithWriter creates a structured logger writing JSON to w
func NewStructuredLoggerWithWriter(component string, w io.Writer) *StructuredLogger {
	return &StructuredLogger{
		logger:    newZerolog(w),
		component: component,
		context:   make(LogContext),
	}
}

func newZerolog(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// WithContext adds context to the logger (returns a new logger instance)
func (sl *StructuredLogger) WithContext(key string, value interface{}) *StructuredLogger {
	newLogger := &StructuredLogger{
		logger:    sl.logger,
		component: sl.component,
		context:   make(LogContext, len(sl.context)+1),
		manager:   sl.manager,
	}

	for k, v := range sl.context {
		newLogger.context[k] = v
	}

	newLogger.context[key] = value
	return newLogger
}

// WithError adds error information to the logger context
func (sl *StructuredLogger) WithError(err error) *StructuredLogger {
	if err == nil {
		return sl
	}

	newLogger := sl.WithContext("error", err.Error())

	if structuredErr, ok := errors.AsStructured(err); ok {
		newLogger = newLogger.
			WithContext("error_category", structuredErr.Category).
			WithContext("error_code", structuredErr.Code).
			WithContext("error_severity", structuredErr.Severity).
			WithContext("error_recoverable", structuredErr.IsRecoverable())

		for k, v := range structuredErr.Context {
			newLogger = newLogger.WithContext(fmt.Sprintf("error_ctx_%s", k), v)
		}
	}

	return newLogger
}

// Component returns the component name attached to every entry
func (sl *StructuredLogger) Component() string {
	return sl.component
}

func (sl *StructuredLogger) log(level zerolog.Level, message string) {
	if sl.manager != nil {
		if !sl.manager.shouldLog(level) {
			return
		}
		sl.manager.updateStats(sl.component, level)
	}

	sl.logger.WithLevel(level).
		Str("component", sl.component).
		Fields(map[string]interface{}(sl.context)).
		Msg(message)
}

// Debug logs a debug message
func (sl *StructuredLogger) Debug(message string) {
	sl.log(zerolog.DebugLevel, message)
}

// Info logs an info message
func (sl *StructuredLogger) Info(message string) {
	sl.log(zerolog.InfoLevel, message)
}

// Warn logs a warning message
func (sl *StructuredLogger) Warn(message string) {
	sl.log(zerolog.WarnLevel, message)
}

// Error logs an error message
func (sl *StructuredLogger) Error(message string) {
	sl.log(zerolog.ErrorLevel, message)
}

// LogToolCall logs a tool invocation with timing information
func (sl *StructuredLogger) LogToolCall(toolName string, requestID string, duration time.Duration, success bool) {
	logger := sl.WithContext("tool", toolName).
		WithContext("request_id", requestID).
		WithContext("duration_ms", duration.Milliseconds()).
		WithContext("success", success)

	if success {
		logger.Info("Tool call processed successfully")
	} else {
		logger.Warn("Tool call processing failed")
	}
}

// LogStartup logs application startup events
func (sl *StructuredLogger) LogStartup(event string, details map[string]interface{}) {
	logger := sl.WithContext("startup_event", event)
	for k, v := range sanitizeLogData(details) {
		logger = logger.WithContext(k, v)
	}
	logger.Info("Application startup event")
}

// LogShutdown logs application shutdown events
func (sl *StructuredLogger) LogShutdown(event string, details map[string]interface{}) {
	logger := sl.WithContext("shutdown_event", event)
	for k, v := range sanitizeLogData(details) {
		logger = logger.WithContext(k, v)
	}
	logger.Info("Application shutdown event")
}

// sanitizeLogData masks values whose keys look like credentials
func sanitizeLogData(data map[string]interface{}) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(data))

	sensitiveKeys := []string{
		"password", "token", "secret", "key", "auth", "credential",
	}

	for k, v := range data {
		keyLower := strings.ToLower(k)
		isSensitive := false

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(keyLower, sensitiveKey) {
				isSensitive = true
				break
			}
		}

		switch {
		case isSensitive:
			sanitized[k] = "[REDACTED]"
		default:
			if str, ok := v.(string); ok {
				sanitized[k] = sanitizeStringValue(str)
			} else {
				sanitized[k] = v
			}
		}
	}

	return sanitized
}

// sanitizeStringValue masks long alphanumeric strings that look like tokens
func sanitizeStringValue(value string) interface{} {
	if len(value) > 20 && isAlphanumeric(value) {
		return fmt.Sprintf("[MASKED:%d_chars]", len(value))
	}
	return value
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
