// Package tools provides tool registration and execution with argument
// validation, timeout enforcement and request-scoped logging.
//
// All tools implement the Tool interface and are executed through the
// ToolExecutor, which applies these constraints consistently:
//   - arguments are validated against the tool's JSON schema
//   - every execution is bounded by the executor timeout
//   - each call carries a request ID for log correlation
//
// Argument values are never logged; only their names and count are.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"

	"mcp-zyte-fetch-service/pkg/config"
	"mcp-zyte-fetch-service/pkg/errors"
	"mcp-zyte-fetch-service/pkg/logging"
)

// DefaultToolTimeout matches the outbound extraction timeout
const DefaultToolTimeout = config.DefaultTimeout

// ToolExecutor handles tool execution with validation, timeout, and logging
type ToolExecutor struct {
	maxExecutionTime time.Duration
	logger           *logging.StructuredLogger
	timeoutCallback  func()

	resolved sync.Map // tool name -> *jsonschema.Resolved
}

// NewToolExecutor creates a new ToolExecutor. A non-positive timeout selects
// DefaultToolTimeout.
func NewToolExecutor(logger *logging.StructuredLogger, timeout time.Duration) *ToolExecutor {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &ToolExecutor{
		maxExecutionTime: timeout,
		logger:           logger,
	}
}

// SetTimeoutCallback sets a callback function to be called when a timeout occurs
func (te *ToolExecutor) SetTimeoutCallback(callback func()) {
	te.timeoutCallback = callback
}

// Timeout returns the execution bound applied to every tool call
func (te *ToolExecutor) Timeout() time.Duration {
	return te.maxExecutionTime
}

// Execute validates arguments and executes a tool with timeout protection
func (te *ToolExecutor) Execute(ctx context.Context, tool Tool, arguments map[string]interface{}) (interface{}, error) {
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}

	logger := te.logger.
		WithContext("tool", tool.Name()).
		WithContext("request_id", requestID)

	if err := te.ValidateArguments(tool, arguments); err != nil {
		logger.WithError(err).Warn("Tool argument validation failed")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, te.maxExecutionTime)
	defer cancel()

	logger.
		WithContext("argument_names", argumentNames(arguments)).
		Info("Executing tool")

	result, err := tool.Execute(ctx, arguments)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			logger.WithContext("timeout", te.maxExecutionTime.String()).
				Error("Tool execution timeout")

			if te.timeoutCallback != nil {
				te.timeoutCallback()
			}

			if se, ok := errors.AsStructured(err); ok && se.Code == errors.ErrCodeTimeout {
				return nil, se
			}
			return nil, errors.NewSystemError(
				errors.ErrCodeToolTimeout,
				fmt.Sprintf("tool execution timeout after %s", te.maxExecutionTime),
				err,
			).WithContext("tool_name", tool.Name())
		}

		if errors.IsTimeout(err) && te.timeoutCallback != nil {
			te.timeoutCallback()
		}

		logger.WithError(err).Error("Tool execution failed")
		return nil, err
	}

	logger.Info("Tool execution completed")

	return result, nil
}

// ValidateArguments validates tool arguments against the tool's input schema
func (te *ToolExecutor) ValidateArguments(tool Tool, arguments map[string]interface{}) error {
	resolved, err := te.resolveSchema(tool)
	if err != nil {
		return err
	}
	if resolved == nil {
		return nil
	}

	instance := map[string]any{}
	for k, v := range arguments {
		instance[k] = v
	}

	if err := resolved.Validate(instance); err != nil {
		return errors.NewValidationError(
			errors.ErrCodeInvalidParams,
			"tool argument validation failed",
			err,
		).WithContext("tool_name", tool.Name())
	}

	return nil
}

func (te *ToolExecutor) resolveSchema(tool Tool) (*jsonschema.Resolved, error) {
	if cached, ok := te.resolved.Load(tool.Name()); ok {
		return cached.(*jsonschema.Resolved), nil
	}

	schema := tool.InputSchema()
	if schema == nil {
		return nil, nil
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, errors.NewSystemError(
			errors.ErrCodeInitializationFailed,
			"invalid tool input schema",
			err,
		).WithContext("tool_name", tool.Name())
	}

	te.resolved.Store(tool.Name(), resolved)
	return resolved, nil
}

func argumentNames(arguments map[string]interface{}) []string {
	names := make([]string, 0, len(arguments))
	for name := range arguments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
