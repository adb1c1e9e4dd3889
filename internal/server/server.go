// Package server hosts the published tools over MCP and serves the admin API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/registry"
	"github.com/brizzai/mcp-openapi-hub/internal/server/handler"
	"github.com/brizzai/mcp-openapi-hub/internal/server/tool"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// NewMCPServer creates the MCP server the tools are published on
func NewMCPServer(cfg *config.Config) *mcpserver.MCPServer {
	return mcpserver.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithLogging(),
	)
}

// Server runs the MCP transport selected by the configured mode and,
// when enabled, the admin API next to it
type Server struct {
	config  *config.Config
	mcp     *mcpserver.MCPServer
	handler *handler.Handler
	admin   *AdminHandler

	stdin  io.Reader
	stdout io.Writer
}

// ServerParams are the fx-injected dependencies of NewServer
type ServerParams struct {
	fx.In

	Config  *config.Config
	MCP     *mcpserver.MCPServer
	Handler *handler.Handler
	Admin   *AdminHandler
}

// NewServer creates a new Server
func NewServer(params ServerParams) *Server {
	return &Server{
		config:  params.Config,
		mcp:     params.MCP,
		handler: params.Handler,
		admin:   params.Admin,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
}

// MCP returns the underlying MCP server
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// ServeSSE serves MCP over SSE on the configured address until ctx is canceled
func (s *Server) ServeSSE(ctx context.Context) error {
	logger.Info("Starting MCP server via SSE", zap.String("mode", "sse"))

	sseServer := mcpserver.NewSSEServer(
		s.mcp,
		mcpserver.WithBaseURL(fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.config.Server.Port)),
	)
	return s.serveHTTP(ctx, s.address(), s.handler.CreateHTTPHandler(sseServer), "SSE")
}

// ServeHTTP serves MCP over streamable HTTP on the configured address until ctx is canceled
func (s *Server) ServeHTTP(ctx context.Context) error {
	logger.Info("Starting MCP server via HTTP", zap.String("mode", "http"))

	httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
	return s.serveHTTP(ctx, s.address(), s.handler.CreateHTTPHandler(httpServer), "HTTP")
}

// ServeSTDIO serves MCP over standard I/O. Logs must not be written to stdout in this mode.
func (s *Server) ServeSTDIO(ctx context.Context) error {
	logger.Info("Starting MCP server via STDIO")
	stdioServer := mcpserver.NewStdioServer(s.mcp)
	return stdioServer.Listen(ctx, s.stdin, s.stdout)
}

// ServeAdmin serves the document management API until ctx is canceled
func (s *Server) ServeAdmin(ctx context.Context) error {
	addr := s.config.Admin.Address
	return s.serveHTTP(ctx, addr, handler.CORSMiddleware(handler.LoggingMiddleware(s.admin.Routes())), "admin")
}

func (s *Server) address() string {
	return fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
}

func (s *Server) serveHTTP(ctx context.Context, addr string, h http.Handler, mode string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Server listening",
			zap.String("mode", mode),
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("%s server error: %w", mode, err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.String("mode", mode),
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s server shutdown error: %w", mode, err)
		}
		return nil
	case err := <-errChan:
		return err
	}
}

// Start serves the configured MCP mode, plus the admin API when enabled,
// until ctx is canceled or one of them fails
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting server",
		zap.String("mode", string(s.config.Server.Mode)),
		zap.String("version", s.config.Server.Version),
		zap.Bool("admin", s.config.Admin.Enabled),
	)

	var serve func(context.Context) error
	switch s.config.Server.Mode {
	case config.ServerModeSSE:
		serve = s.ServeSSE
	case config.ServerModeHTTP:
		serve = s.ServeHTTP
	case config.ServerModeSTDIO, "":
		serve = s.ServeSTDIO
	default:
		return fmt.Errorf("unsupported server mode: %s", s.config.Server.Mode)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(gctx) })
	if s.config.Admin.Enabled {
		g.Go(func() error { return s.ServeAdmin(gctx) })
	}
	return g.Wait()
}

// Module provides the MCP server, its tool host and the admin API
var Module = fx.Module("server",
	fx.Provide(
		NewMCPServer,
		tool.NewHandler,
		handler.NewHandler,
		fx.Annotate(
			NewToolHost,
			fx.As(new(registry.ToolHost)),
		),
		NewAdminHandler,
		NewServer,
	),
)
