package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/paulsava/cpg"
	"github.com/paulsava/cpg/pkg/orchestrator"
	"github.com/paulsava/cpg/pkg/passes"
)

// Engine defines the interface required by the MCP server to drive the
// orchestrator.
type Engine interface {
	RunPass(ctx context.Context, passID, nodeID string) (*orchestrator.Result, error)
	LoadGraph(ctx context.Context, path string) error
	Status() cpg.Status
	Catalog() *passes.Catalog
}

// RunPassRequest carries the arguments of the run_pass tool.
type RunPassRequest struct {
	PassID string `mapstructure:"pass_id"`
	NodeID string `mapstructure:"node_id"`
}

// RunPassResponse mirrors the orchestrator result for tool callers. The
// status is "done" or "failed"; on failure the partial execution log is
// still present so the caller can decide whether to retry the rest.
type RunPassResponse struct {
	Status   string                   `json:"status" jsonschema_description:"done or failed"`
	Executed []orchestrator.Execution `json:"executed" jsonschema_description:"Ordered log of executed passes"`
	Warnings []string                 `json:"warnings,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// Server exposes the pass orchestrator as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("cpg-mcp", strings.TrimSpace(cpg.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: run_pass
	runTool := mcp.NewTool("run_pass",
		mcp.WithDescription("Run an analysis pass on a node of the loaded program graph. Unsatisfied hard dependencies run first; work already recorded in the session ledger is skipped."),
		mcp.WithString("pass_id", mcp.Required(), mcp.Description("ID of the pass to run (see list_passes)")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the anchor node")),
		mcp.WithOutputSchema[RunPassResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunPass))

	// TOOL: status
	s.mcpServer.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Report whether an analysis session is active and which passes have executed."),
		mcp.WithOutputSchema[cpg.Status](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	// TOOL: list_passes
	s.mcpServer.AddTool(mcp.NewTool("list_passes",
		mcp.WithDescription("List the registered passes with their categories and dependencies."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.engine.Catalog().List())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: load_graph
	s.mcpServer.AddTool(mcp.NewTool("load_graph",
		mcp.WithDescription("Start a new analysis session from a graph document on disk. The previous session's ledger is discarded."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the YAML graph document")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.engine.LoadGraph(ctx, path); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		st := s.engine.Status()
		return mcp.NewToolResultText(fmt.Sprintf("session %s started with %d nodes", st.SessionID, st.Nodes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleRunPass(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunPassResponse, error) {
	var req RunPassRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		return RunPassResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if req.PassID == "" || req.NodeID == "" {
		return RunPassResponse{}, fmt.Errorf("pass_id and node_id are required")
	}

	res, err := s.engine.RunPass(ctx, req.PassID, req.NodeID)
	if err != nil {
		slog.Warn("MCP run_pass: request failed", "pass", req.PassID, "node", req.NodeID, "error", err)
	}

	out := RunPassResponse{
		Status:   string(res.Status),
		Executed: res.Executed,
		Warnings: res.Warnings,
		Error:    res.Error,
	}
	return out, nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (cpg.Status, error) {
	return s.engine.Status(), nil
}

func (s *Server) registerResources() {
	// EXPOSE: cpg://catalog
	s.mcpServer.AddResource(mcp.NewResource("cpg://catalog", "Registered Pass Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Catalog().List())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "cpg://catalog",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
