package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcp-zyte-fetch-service/pkg/config"
	"mcp-zyte-fetch-service/pkg/logging"
	"mcp-zyte-fetch-service/pkg/tools"
	"mcp-zyte-fetch-service/pkg/zyte"
)

// MCPServer represents the main MCP server
type MCPServer struct {
	cfg    config.Config
	server *mcp.Server

	// Extraction
	extractor   zyte.Extractor
	client      *zyte.Client
	toolManager *tools.ToolManager

	// Logging
	loggingManager *logging.LoggingManager
	logger         *logging.StructuredLogger
}

// NewMCPServer creates a new MCP server with the page-content tools registered
func NewMCPServer(cfg config.Config, logLevel string) (*MCPServer, error) {
	return newMCPServerWithWriter(cfg, logLevel, os.Stderr, nil)
}

// newMCPServerWithWriter builds a server logging to w. A nil extractor selects
// the Zyte API client for cfg.
func newMCPServerWithWriter(cfg config.Config, logLevel string, w io.Writer, extractor zyte.Extractor) (*MCPServer, error) {
	loggingManager := logging.NewLoggingManagerWithWriter(w)
	loggingManager.SetLogLevel(logLevel)
	loggingManager.SetGlobalContext("service", cfg.ServerName)
	loggingManager.SetGlobalContext("version", cfg.ServerVersion)
	logger := loggingManager.GetLogger("server")

	var client *zyte.Client
	if extractor == nil {
		client = zyte.NewClient(cfg, zyte.WithLogger(loggingManager.GetLogger("zyte")))
		extractor = client
	}

	s := &MCPServer{
		cfg: cfg,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.ServerName,
			Version: cfg.ServerVersion,
		}, nil),
		extractor:      extractor,
		client:         client,
		toolManager:    tools.NewToolManager(loggingManager.GetLogger("tools"), cfg.Timeout),
		loggingManager: loggingManager,
		logger:         logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, err
	}

	return s, nil
}

// registerTools adds the page-content tools to the manager and exposes each
// one through the MCP server
func (s *MCPServer) registerTools() error {
	for _, tool := range tools.NewFetchPageContentTools(s.extractor) {
		if err := s.toolManager.RegisterTool(tool); err != nil {
			return fmt.Errorf("register tool %s: %w", tool.Name(), err)
		}
	}

	for _, def := range s.toolManager.ListTools() {
		s.server.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, s.toolHandler(def.Name))
	}

	return nil
}

// Start serves MCP over stdin/stdout until ctx is cancelled or the client disconnects
func (s *MCPServer) Start(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Run serves MCP over the given transport
func (s *MCPServer) Run(ctx context.Context, transport mcp.Transport) error {
	startTime := time.Now()

	s.loggingManager.LogStartupSequence("server_start", map[string]interface{}{
		"tools": len(s.toolManager.ListTools()),
	}, 0, true)

	s.logCredentialStatus()

	s.loggingManager.LogStartupSequence("server_ready", map[string]interface{}{
		"timeout": s.cfg.Timeout.String(),
	}, time.Since(startTime), true)

	s.logger.Info("Zyte fetch page content MCP server started")

	err := s.server.Run(ctx, transport)
	if err == nil || ctx.Err() != nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("mcp server: %w", err)
}

// HTTPHandler exposes the server over the MCP streamable HTTP transport
func (s *MCPServer) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// Shutdown logs final tool outcomes and vendor status classes. In-flight
// calls are bounded by their own timeouts.
func (s *MCPServer) Shutdown(ctx context.Context) error {
	shutdownStart := time.Now()

	s.loggingManager.LogShutdownSequence("shutdown_start", map[string]interface{}{}, 0, true)

	metrics := s.toolManager.GetPerformanceMetrics()
	toolMetrics := map[string]interface{}{
		"total_invocations":  metrics["total_invocations"],
		"failed_invocations": metrics["failed_invocations"],
		"timeout_count":      metrics["timeout_count"],
		"outcomes":           metrics["outcomes"],
	}
	if s.client != nil {
		toolMetrics["vendor_statuses"] = s.client.StatusCounts()
	}
	s.loggingManager.LogShutdownSequence("tool_metrics", toolMetrics, 0, true)

	s.loggingManager.LogShutdownSequence("shutdown_complete", map[string]interface{}{
		"total_shutdown_time_ms": time.Since(shutdownStart).Milliseconds(),
	}, time.Since(shutdownStart), ctx.Err() == nil)

	s.logger.Info("Zyte fetch page content MCP server shutdown completed")

	return nil
}

// ToolManager returns the registry backing the MCP tools
func (s *MCPServer) ToolManager() *tools.ToolManager {
	return s.toolManager
}

func (s *MCPServer) logCredentialStatus() {
	if !s.cfg.HasCredential() {
		s.logger.Warn("ZYTE_API_KEY not set in environment")
		return
	}
	s.logger.Info("ZYTE_API_KEY configured from environment")
}
