package tools

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-zyte-fetch-service/pkg/errors"
)

func TestToolManager_RegisterTool(t *testing.T) {
	tests := []struct {
		name    string
		tool    Tool
		wantErr string
	}{
		{name: "valid tool", tool: &mockTool{name: "valid", description: "d", schema: objectSchema()}},
		{name: "nil tool", tool: nil, wantErr: "nil tool"},
		{name: "empty name", tool: &mockTool{schema: objectSchema()}, wantErr: "name cannot be empty"},
		{name: "missing schema", tool: &mockTool{name: "no-schema"}, wantErr: "no input schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := NewToolManager(newTestLogger(), time.Second)
			err := tm.RegisterTool(tt.tool)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("duplicate name", func(t *testing.T) {
		tm := NewToolManager(newTestLogger(), time.Second)
		require.NoError(t, tm.RegisterTool(&mockTool{name: "dup", schema: objectSchema()}))

		err := tm.RegisterTool(&mockTool{name: "dup", schema: objectSchema()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})
}

func TestToolManager_GetTool(t *testing.T) {
	tm := NewToolManager(newTestLogger(), time.Second)
	require.NoError(t, tm.RegisterTool(&mockTool{name: "known", schema: objectSchema()}))

	tool, err := tm.GetTool("known")
	require.NoError(t, err)
	assert.Equal(t, "known", tool.Name())

	_, err = tm.GetTool("unknown")
	require.Error(t, err)
	se, ok := errors.AsStructured(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeToolNotFound, se.Code)
	assert.Equal(t, "validation_error", se.PayloadType())
}

func TestToolManager_ListToolsSorted(t *testing.T) {
	tm := NewToolManager(newTestLogger(), time.Second)
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, tm.RegisterTool(&mockTool{name: name, description: name, schema: objectSchema()}))
	}

	defs := tm.ListTools()
	require.Len(t, defs, 3)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "bravo", defs[1].Name)
	assert.Equal(t, "charlie", defs[2].Name)
	assert.NotNil(t, defs[0].InputSchema)
}

func TestToolManager_ExecuteToolRecordsStats(t *testing.T) {
	tm := NewToolManager(newTestLogger(), time.Second)
	require.NoError(t, tm.RegisterTool(&mockTool{name: "ok", schema: objectSchema()}))
	require.NoError(t, tm.RegisterTool(&mockTool{
		name:   "fail",
		schema: objectSchema(),
		executeFunc: func(context.Context, map[string]interface{}) (interface{}, error) {
			return nil, fmt.Errorf("failed")
		},
	}))

	result, err := tm.ExecuteTool(context.Background(), "ok", map[string]interface{}{"url": "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "success", result)

	_, err = tm.ExecuteTool(context.Background(), "fail", nil)
	require.Error(t, err)

	_, err = tm.ExecuteTool(context.Background(), "missing", nil)
	require.Error(t, err)

	metrics := tm.GetPerformanceMetrics()
	assert.Equal(t, int64(3), metrics["total_invocations"])
	assert.Equal(t, int64(2), metrics["failed_invocations"])
	assert.Equal(t, int64(0), metrics["timeout_count"])

	outcomes := metrics["outcomes"].(map[string]int64)
	assert.Equal(t, int64(1), outcomes[OutcomeSuccess])
	assert.Equal(t, int64(1), outcomes["system_error"])
	assert.Equal(t, int64(1), outcomes["validation_error"])

	byName := metrics["invocations_by_name"].(map[string]int64)
	assert.Equal(t, int64(1), byName["ok"])
	assert.Equal(t, int64(1), byName["fail"])
	assert.Equal(t, int64(1), byName["missing"])
}

func TestToolManager_TimeoutIsCounted(t *testing.T) {
	tm := NewToolManager(newTestLogger(), 20*time.Millisecond)
	require.NoError(t, tm.RegisterTool(&mockTool{
		name:   "slow",
		schema: objectSchema(),
		executeFunc: func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}))

	_, err := tm.ExecuteTool(context.Background(), "slow", nil)
	require.Error(t, err)

	metrics := tm.GetPerformanceMetrics()
	assert.Equal(t, int64(1), metrics["timeout_count"])
	assert.Equal(t, int64(1), metrics["failed_invocations"])
	assert.Equal(t, map[string]int64{"timeout_error": 1}, metrics["outcomes"])
}

func TestToolManager_ConcurrentExecution(t *testing.T) {
	tm := NewToolManager(newTestLogger(), time.Second)
	require.NoError(t, tm.RegisterTool(&mockTool{name: "concurrent", schema: objectSchema()}))

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = tm.ExecuteTool(context.Background(), "concurrent", nil)
		}()
	}
	wg.Wait()

	metrics := tm.GetPerformanceMetrics()
	assert.Equal(t, int64(workers), metrics["total_invocations"])
	assert.Equal(t, int64(0), metrics["failed_invocations"])
	assert.Equal(t, map[string]int64{OutcomeSuccess: workers}, metrics["outcomes"])
}
