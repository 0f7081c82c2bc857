package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mcp-zyte-fetch-service/internal/server"
	"mcp-zyte-fetch-service/pkg/config"
	"mcp-zyte-fetch-service/pkg/logging"
)

func main() {
	if err := newRootCmd(config.NewViper()).Execute(); err != nil {
		logFailure(logging.NewLoggingManager(), err)
		os.Exit(1)
	}
}

// logFailure reports a fatal startup or serving error before the process exits
func logFailure(lm *logging.LoggingManager, err error) {
	lm.SetGlobalContext("service", config.ServiceName)
	lm.LogError("main", err, "MCP server failed", map[string]interface{}{
		"exit_code": 1,
	})
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mcp-server",
		Short:         "Serve Zyte page-content extraction tools over MCP stdio",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	rootCmd.Flags().String("log-level", config.DefaultLogLevel, "Logging level (DEBUG, INFO, WARN, ERROR)")
	if err := v.BindPFlag(config.EnvLogLevel, rootCmd.Flags().Lookup("log-level")); err != nil {
		panic(fmt.Errorf("bind log-level flag: %w", err))
	}

	return rootCmd
}

func run(ctx context.Context, cfg config.Config) error {
	mcpServer, err := server.NewMCPServer(cfg, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	serveErr := mcpServer.Start(ctx)

	if err := mcpServer.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return serveErr
}
