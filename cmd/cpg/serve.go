package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulsava/cpg"
	httpadapter "github.com/paulsava/cpg/internal/adapters/http"
	"github.com/paulsava/cpg/internal/logging"
	"github.com/paulsava/cpg/pkg/adapters/mcp"
	redisadapter "github.com/paulsava/cpg/pkg/adapters/redis"
	"github.com/paulsava/cpg/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the orchestrator to tool callers",
	Long: `Starts the orchestrator behind a tool-dispatch surface.

Supported transports:
- stdio (default): MCP over Standard Input/Output. Ideal for local agents.
- sse: MCP over Server-Sent Events. Ideal for remote agents or debuggers.
- http: plain JSON over HTTP, with prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		graphPath, _ := cmd.Flags().GetString("graph")
		redisAddr, _ := cmd.Flags().GetString("redis")
		level, _ := cmd.Flags().GetString("log-level")

		logger := logging.New(logging.ParseLevel(level))
		slog.SetDefault(logger)

		registry := prometheus.NewRegistry()
		opts := []cpg.Option{
			cpg.WithLogger(logger),
			cpg.WithMetrics(observability.NewMetrics(registry)),
		}
		if redisAddr != "" {
			client := backend.NewClient(&backend.Options{Addr: redisAddr})
			opts = append(opts, cpg.WithLocker(redisadapter.NewLocker(client, "cpg:")))
		}

		eng, err := cpg.New(opts...)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if graphPath != "" {
			if err := eng.LoadGraph(ctx, graphPath); err != nil {
				return err
			}
		}

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout.
			log.SetOutput(os.Stderr)
			slog.Info("Starting MCP server (stdio)")
			return mcp.NewServer(eng).ServeStdio()
		case "sse":
			slog.Info("Starting MCP server (SSE)", "port", port)
			if err := mcp.NewServer(eng).ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
				return err
			}
			slog.Info("MCP server stopped gracefully")
			return nil
		case "http":
			addr := fmt.Sprintf(":%d", port)
			srv := &http.Server{
				Addr:    addr,
				Handler: httpadapter.NewHandler(eng, registry),
			}
			errs := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "address", addr)
				errs <- srv.ListenAndServe()
			}()
			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		default:
			return fmt.Errorf("unknown transport: %s (supported: stdio, sse, http)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("transport", "stdio", "Transport to use: 'stdio', 'sse' or 'http'")
	serveCmd.Flags().Int("port", 8080, "Port to listen on (sse and http)")
	serveCmd.Flags().String("redis", "", "Redis address for distributed request locking (optional)")
}
