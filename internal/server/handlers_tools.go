package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcp-zyte-fetch-service/internal/models"
	"mcp-zyte-fetch-service/pkg/errors"
	"mcp-zyte-fetch-service/pkg/tools"
)

// toolHandler adapts a registered tool to the MCP tools/call handler signature
func (s *MCPServer) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.handleToolsCall(ctx, name, req.Params.Arguments), nil
	}
}

// handleToolsCall executes a tool and converts its outcome into a tool result.
// Failures are reported in-band so the calling model can see them.
func (s *MCPServer) handleToolsCall(ctx context.Context, name string, rawArguments json.RawMessage) *mcp.CallToolResult {
	startTime := time.Now()
	requestID := uuid.NewString()
	ctx = tools.WithRequestID(ctx, requestID)

	arguments, err := decodeArguments(rawArguments)
	if err != nil {
		s.loggingManager.LogToolRequest(name, requestID, time.Since(startTime), false, err.Error())
		return errorResult(err)
	}

	result, err := s.toolManager.ExecuteTool(ctx, name, arguments)
	if err != nil {
		s.loggingManager.LogToolRequest(name, requestID, time.Since(startTime), false, err.Error())
		return errorResult(err)
	}

	text, ok := result.(string)
	if !ok {
		encoded, err := json.Marshal(result)
		if err != nil {
			structuredErr := errors.NewSystemError(errors.ErrCodeSerializationFailed,
				"failed to serialize tool result", err).
				WithContext("tool_name", name)
			s.loggingManager.LogToolRequest(name, requestID, time.Since(startTime), false, structuredErr.Error())
			return errorResult(structuredErr)
		}
		text = string(encoded)
	}

	s.loggingManager.LogToolRequest(name, requestID, time.Since(startTime), true, "")

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// decodeArguments unmarshals the raw tools/call arguments. Absent or null
// arguments yield an empty map.
func decodeArguments(raw json.RawMessage) (map[string]interface{}, error) {
	arguments := map[string]interface{}{}
	if len(raw) == 0 || string(raw) == "null" {
		return arguments, nil
	}
	if err := json.Unmarshal(raw, &arguments); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidParams,
			"tool arguments must be a JSON object", err)
	}
	return arguments, nil
}

// errorResult renders err as an error payload inside an IsError tool result
func errorResult(err error) *mcp.CallToolResult {
	payload := models.ErrorPayload{Error: err.Error(), Type: models.ErrorTypeSystem}
	if structuredErr, ok := errors.AsStructured(err); ok {
		payload = structuredErr.ToPayload()
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: payload.Text()}},
		IsError: true,
	}
}
