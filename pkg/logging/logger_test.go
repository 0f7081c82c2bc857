package logging

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-zyte-fetch-service/pkg/errors"
)

func newTestLogger() (*StructuredLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewStructuredLoggerWithWriter("test", &buf), &buf
}

func TestStructuredLogger(t *testing.T) {
	t.Run("Initialization", func(t *testing.T) {
		logger := NewStructuredLogger("test-component")
		assert.Equal(t, "test-component", logger.Component())
		assert.NotNil(t, logger.context)
	})

	t.Run("WithContext immutability", func(t *testing.T) {
		logger := NewStructuredLogger("test")
		newLogger := logger.WithContext("user_id", "value1").WithContext("count", 42)

		assert.Empty(t, logger.context)
		assert.Len(t, newLogger.context, 2)
		assert.Equal(t, "value1", newLogger.context["user_id"])
		assert.Equal(t, 42, newLogger.context["count"])
	})

	t.Run("WithError", func(t *testing.T) {
		logger := NewStructuredLogger("test")
		testErr := errors.NewValidationError(errors.ErrCodeInvalidParams, "Invalid input", nil).
			WithContext("field", "url")

		newLogger := logger.WithError(fmt.Errorf("wrapped: %w", testErr))
		assert.Contains(t, newLogger.context, "error")
		assert.Equal(t, errors.ErrorCategoryValidation, newLogger.context["error_category"])
		assert.Equal(t, "url", newLogger.context["error_ctx_field"])
	})

	t.Run("WithError nil returns same logger", func(t *testing.T) {
		logger := NewStructuredLogger("test")
		assert.Same(t, logger, logger.WithError(nil))
	})

	t.Run("writes JSON entries with context", func(t *testing.T) {
		logger, buf := newTestLogger()
		logger.WithContext("tool", "fetch").Warn("slow call")

		entries := decodeLines(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "warn", entries[0]["level"])
		assert.Equal(t, "slow call", entries[0]["message"])
		assert.Equal(t, "fetch", entries[0]["tool"])
		assert.Equal(t, "test", entries[0]["component"])
		assert.Contains(t, entries[0], "time")
	})
}

func TestSanitizeLogData(t *testing.T) {
	sanitized := sanitizeLogData(map[string]interface{}{
		"ZYTE_API_KEY": "secret",
		"auth_header":  "Basic abc",
		"raw":          "abcdefghijklmnopqrstuvwxyz0123",
		"url":          "https://example.com/a?b=c",
		"count":        3,
	})

	assert.Equal(t, "[REDACTED]", sanitized["ZYTE_API_KEY"])
	assert.Equal(t, "[REDACTED]", sanitized["auth_header"])
	assert.Equal(t, "[MASKED:30_chars]", sanitized["raw"])
	assert.Equal(t, "https://example.com/a?b=c", sanitized["url"])
	assert.Equal(t, 3, sanitized["count"])
}
