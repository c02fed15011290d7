// Package mcp exposes registered operations as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/relay/pkg/adapters/openai"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// ToolsURI is the resource listing every exposed function definition.
const ToolsURI = "relay://tools"

// Server wraps a registry and exposes it as an MCP server.
type Server struct {
	registry  *registry.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates an MCP server with one tool per registered function.
func NewServer(reg *registry.Registry, name, version string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry: reg,
		mcpServer: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
		logger: logger,
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) registerTools() error {
	for _, fn := range s.registry.Functions() {
		raw, err := json.Marshal(fn.Function.Parameters)
		if err != nil {
			return fmt.Errorf("tool %q: %w", fn.Function.Name, err)
		}
		name := fn.Function.Name
		tool := mcp.NewToolWithRawSchema(name, fn.Function.Description, raw)
		s.mcpServer.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return s.HandleTool(ctx, name, req.GetArguments())
		})
	}
	return nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ToolsURI, "Function definitions",
		mcp.WithResourceDescription("Every exposed operation as an OpenAI function definition"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(s.registry.Functions())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: ToolsURI, MIMEType: "application/json", Text: string(b)},
		}, nil
	})
}

// HandleTool invokes the function name with args. Failures, including
// results produced by an error formatter, are reported as tool errors.
func (s *Server) HandleTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := s.registry.Invoke(ctx, name, args)
	if err != nil {
		s.logger.WarnContext(ctx, "mcp tool failed", "tool", name, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if e, ok := res.(dsl.ErrorResult); ok {
		return mcp.NewToolResultError(openai.Content(e)), nil
	}
	return mcp.NewToolResultText(openai.Content(res)), nil
}
