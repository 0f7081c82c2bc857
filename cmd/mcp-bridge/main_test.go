package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-zyte-fetch-service/pkg/config"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd(config.NewViper())

	host := cmd.Flags().Lookup("host")
	require.NotNil(t, host)
	assert.Equal(t, "localhost", host.DefValue)

	port := cmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "8080", port.DefValue)

	require.NotNil(t, cmd.Flags().Lookup("log-level"))
}

func TestBridgeServesTools(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "ERROR"

	bridge, err := NewMCPBridge(cfg, "127.0.0.1", 0)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Serve(ctx, listener) }()

	callCtx, callCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer callCancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "bridge-test", Version: "1.0.0"}, nil)
	session, err := client.Connect(callCtx, &mcp.StreamableClientTransport{
		Endpoint: "http://" + listener.Addr().String(),
	}, nil)
	require.NoError(t, err)

	tools, err := session.ListTools(callCtx, nil)
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 3)

	result, err := session.CallTool(callCtx, &mcp.CallToolParams{
		Name:      "fetch_page_content_from_browser_html",
		Arguments: map[string]any{"url": "https://example.com"},
	})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.Equal(t,
		`{"error": "ZYTE_API_KEY not configured", "type": "config_error"}`,
		result.Content[0].(*mcp.TextContent).Text)

	_ = session.Close()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("bridge did not shut down")
	}
}
