package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mcp-zyte-fetch-service/internal/server"
	"mcp-zyte-fetch-service/pkg/config"
	"mcp-zyte-fetch-service/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// MCPBridge serves the MCP tools over streamable HTTP for clients that cannot
// spawn a stdio subprocess
type MCPBridge struct {
	host   string
	port   int
	server *server.MCPServer
	http   *http.Server
	logger *logging.StructuredLogger
}

func main() {
	if err := newRootCmd(config.NewViper()).Execute(); err != nil {
		logFailure(logging.NewLoggingManager(), err)
		os.Exit(1)
	}
}

// logFailure reports a fatal startup or serving error before the process exits
func logFailure(lm *logging.LoggingManager, err error) {
	lm.SetGlobalContext("service", config.ServiceName)
	lm.LogError("bridge", err, "MCP bridge failed", map[string]interface{}{
		"exit_code": 1,
	})
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var (
		host string
		port int
	)

	rootCmd := &cobra.Command{
		Use:           "mcp-bridge",
		Short:         "Serve Zyte page-content extraction tools over MCP streamable HTTP",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig(v)
			if err != nil {
				return err
			}

			bridge, err := NewMCPBridge(cfg, host, port)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return bridge.Start(ctx)
		},
	}

	rootCmd.Flags().StringVar(&host, "host", "localhost", "HTTP server host")
	rootCmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	rootCmd.Flags().String("log-level", config.DefaultLogLevel, "Logging level (DEBUG, INFO, WARN, ERROR)")
	if err := v.BindPFlag(config.EnvLogLevel, rootCmd.Flags().Lookup("log-level")); err != nil {
		panic(fmt.Errorf("bind log-level flag: %w", err))
	}

	return rootCmd
}

// NewMCPBridge creates a bridge for cfg listening on host:port
func NewMCPBridge(cfg config.Config, host string, port int) (*MCPBridge, error) {
	mcpServer, err := server.NewMCPServer(cfg, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	return &MCPBridge{
		host:   host,
		port:   port,
		server: mcpServer,
		http: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			Handler:           mcpServer.HTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logging.NewStructuredLogger("bridge"),
	}, nil
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (b *MCPBridge) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", b.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	return b.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled
func (b *MCPBridge) Serve(ctx context.Context, listener net.Listener) error {
	b.logger.WithContext("address", listener.Addr().String()).
		Info("MCP bridge listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.http.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		b.logger.Info("Received shutdown signal, gracefully shutting down")
	}

	return b.Shutdown()
}

// Shutdown stops accepting connections and logs final tool metrics
func (b *MCPBridge) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := b.http.Shutdown(ctx); err != nil {
		b.logger.WithError(err).Warn("Graceful HTTP shutdown timed out, closing open streams")
		if err := b.http.Close(); err != nil {
			return fmt.Errorf("http close: %w", err)
		}
	}
	if err := b.server.Shutdown(ctx); err != nil {
		return err
	}

	b.logger.Info("MCP bridge shutdown completed")
	return nil
}
