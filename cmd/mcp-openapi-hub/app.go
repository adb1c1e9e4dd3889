package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/brizzai/mcp-openapi-hub/internal/documents"
	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/metrics"
	"github.com/brizzai/mcp-openapi-hub/internal/parser"
	"github.com/brizzai/mcp-openapi-hub/internal/registry"
	"github.com/brizzai/mcp-openapi-hub/internal/requester"
	"github.com/brizzai/mcp-openapi-hub/internal/schema"
	"github.com/brizzai/mcp-openapi-hub/internal/server"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const startTimeout = 2 * time.Minute

// setup loads the configuration and initializes the global logger
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitLogger(&cfg.Logging, cfg.Server.Mode); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

// newApp assembles the application graph, extra options are appended last
func newApp(cfg *config.Config, opts ...fx.Option) *fx.App {
	base := []fx.Option{
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetLogger().WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.StartTimeout(startTimeout),
		parser.Module,
		catalog.Module,
		schema.Module,
		registry.Module,
		metrics.Module,
		requester.Module,
		server.Module,
		documents.Module,
	}
	return fx.New(append(base, opts...)...)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app := newApp(cfg, fx.Invoke(registerServer))

	ctx, cancel := context.WithTimeout(cmd.Context(), app.StartTimeout())
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	sig := <-app.Wait()
	logger.Info("Shutting down", zap.Any("signal", sig.Signal))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Error("Failed to stop cleanly", zap.Error(err))
	}
	if sig.ExitCode != 0 {
		return fmt.Errorf("server exited with code %d", sig.ExitCode)
	}
	return nil
}

// registerServer runs the server for the lifetime of the app and shuts the app
// down once the server returns, which is how stdio mode ends on EOF
func registerServer(lc fx.Lifecycle, srv *server.Server, shutdowner fx.Shutdowner) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := 0
				if err := srv.Start(ctx); err != nil {
					logger.Error("Server stopped with error", zap.Error(err))
					code = 1
				}
				_ = shutdowner.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func runTools(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if len(cfg.Documents) == 0 {
		pterm.Warning.Println("No documents configured, pass --document name=location or set documents in config.yaml")
		return nil
	}

	var manager *documents.Manager
	app := newApp(cfg, fx.Populate(&manager))

	ctx, cancel := context.WithTimeout(cmd.Context(), app.StartTimeout())
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	defer func() { _ = app.Stop(context.Background()) }()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Operation", "Document", "Description"})
	for i, op := range manager.ListOperations() {
		t.AppendRow(table.Row{
			i + 1, op.OperationID, op.DocumentName, firstLine(op.Description),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	pterm.Info.Printfln("%d documents loaded", len(manager.ListDocuments()))
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
