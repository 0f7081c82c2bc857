package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool represents an executable function exposed via MCP
type Tool interface {
	// Name returns the unique identifier for the tool
	Name() string

	// Description returns a human-readable description
	Description() string

	// InputSchema returns the JSON schema for tool parameters
	InputSchema() *jsonschema.Schema

	// Execute runs the tool with validated arguments.
	// Returns result data or error.
	Execute(ctx context.Context, arguments map[string]interface{}) (interface{}, error)
}

// ToolDefinition represents metadata about a tool
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// NewToolDefinition creates a ToolDefinition from a Tool
func NewToolDefinition(tool Tool) ToolDefinition {
	return ToolDefinition{
		Name:        tool.Name(),
		Description: tool.Description(),
		InputSchema: tool.InputSchema(),
	}
}

type requestIDKey struct{}

// WithRequestID attaches a request ID used to correlate tool log entries
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID attached to ctx, if any
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
