package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mcp-zyte-fetch-service/internal/models"
	"mcp-zyte-fetch-service/pkg/errors"
	"mcp-zyte-fetch-service/pkg/logging"
)

// ToolManager manages tool registration, discovery, and execution
type ToolManager struct {
	registry map[string]Tool
	executor *ToolExecutor
	logger   *logging.StructuredLogger
	mu       sync.RWMutex

	stats callStats
}

// OutcomeSuccess labels calls that returned a result
const OutcomeSuccess = "success"

// callStats counts tool calls per tool and per outcome. An outcome is
// OutcomeSuccess or the error payload type the caller received.
type callStats struct {
	mu           sync.Mutex
	calls        map[string]int64
	latencyMs    map[string]int64
	outcomes     map[string]int64
	timeoutCount int64
}

// NewToolManager creates a new ToolManager whose executor bounds every call by timeout
func NewToolManager(logger *logging.StructuredLogger, timeout time.Duration) *ToolManager {
	tm := &ToolManager{
		registry: make(map[string]Tool),
		executor: NewToolExecutor(logger, timeout),
		logger:   logger,
		stats: callStats{
			calls:     make(map[string]int64),
			latencyMs: make(map[string]int64),
			outcomes:  make(map[string]int64),
		},
	}
	tm.executor.SetTimeoutCallback(tm.RecordTimeout)
	return tm
}

// RegisterTool registers a new tool in the manager
func (tm *ToolManager) RegisterTool(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("cannot register nil tool")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if _, exists := tm.registry[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	if tool.Description() == "" {
		tm.logger.WithContext("tool", name).
			Warn("Tool registered without description")
	}

	if tool.InputSchema() == nil {
		return fmt.Errorf("tool %s has no input schema", name)
	}

	tm.registry[name] = tool
	tm.logger.WithContext("tool", name).
		Info("Tool registered")

	return nil
}

// GetTool retrieves a tool by name
func (tm *ToolManager) GetTool(name string) (Tool, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tool, exists := tm.registry[name]
	if !exists {
		return nil, errors.NewValidationError(errors.ErrCodeToolNotFound,
			fmt.Sprintf("tool not found: %s", name), nil).
			WithContext("tool_name", name)
	}

	return tool, nil
}

// ListTools returns all registered tool definitions sorted by name
func (tm *ToolManager) ListTools() []ToolDefinition {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tools := make([]ToolDefinition, 0, len(tm.registry))
	for _, tool := range tm.registry {
		tools = append(tools, NewToolDefinition(tool))
	}

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	return tools
}

// ExecuteTool executes a tool by name with the provided arguments
func (tm *ToolManager) ExecuteTool(ctx context.Context, name string, arguments map[string]interface{}) (interface{}, error) {
	startTime := time.Now()

	tool, err := tm.GetTool(name)
	if err != nil {
		tm.record(name, 0, err)
		return nil, err
	}

	result, err := tm.executor.Execute(ctx, tool, arguments)
	tm.record(name, time.Since(startTime).Milliseconds(), err)

	return result, err
}

// GetPerformanceMetrics returns call counts, latency and outcome totals
func (tm *ToolManager) GetPerformanceMetrics() map[string]interface{} {
	tm.stats.mu.Lock()
	defer tm.stats.mu.Unlock()

	var total, failed, totalMs int64
	callsByTool := make(map[string]int64, len(tm.stats.calls))
	for name, count := range tm.stats.calls {
		callsByTool[name] = count
		total += count
	}
	latencyByTool := make(map[string]int64, len(tm.stats.latencyMs))
	for name, ms := range tm.stats.latencyMs {
		latencyByTool[name] = ms
		totalMs += ms
	}
	outcomes := make(map[string]int64, len(tm.stats.outcomes))
	for outcome, count := range tm.stats.outcomes {
		outcomes[outcome] = count
		if outcome != OutcomeSuccess {
			failed += count
		}
	}

	return map[string]interface{}{
		"total_invocations":       total,
		"failed_invocations":      failed,
		"invocations_by_name":     callsByTool,
		"total_execution_time_ms": totalMs,
		"execution_time_by_name":  latencyByTool,
		"outcomes":                outcomes,
		"timeout_count":           tm.stats.timeoutCount,
	}
}

func (tm *ToolManager) record(toolName string, elapsedMs int64, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = models.ErrorTypeSystem
		if se, ok := errors.AsStructured(err); ok {
			outcome = se.PayloadType()
		}
	}

	tm.stats.mu.Lock()
	defer tm.stats.mu.Unlock()

	tm.stats.calls[toolName]++
	tm.stats.latencyMs[toolName] += elapsedMs
	tm.stats.outcomes[outcome]++
}

// RecordTimeout records a timeout event
func (tm *ToolManager) RecordTimeout() {
	tm.stats.mu.Lock()
	defer tm.stats.mu.Unlock()

	tm.stats.timeoutCount++
}
