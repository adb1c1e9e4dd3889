package documents

import (
	"context"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/metrics"
	"github.com/brizzai/mcp-openapi-hub/internal/parser"
	"github.com/brizzai/mcp-openapi-hub/internal/registry"
	"github.com/brizzai/mcp-openapi-hub/internal/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ManagerParams are the Manager's injected dependencies
type ManagerParams struct {
	fx.In

	Config    *config.Config
	Parser    parser.Parser
	Catalog   *catalog.Catalog
	Registrar *registry.Registrar
	Converter *schema.Converter
	Storage   Storage
	Metrics   *metrics.Collector `optional:"true"`
}

// Module provides the document Manager and loads the configured documents on start
var Module = fx.Module("documents",
	fx.Provide(
		fx.Annotate(
			NewFileStorageFromConfig,
			fx.As(new(Storage)),
		),
		func(p ManagerParams) *Manager {
			return NewManager(p.Parser, p.Catalog, p.Registrar, p.Converter, p.Storage,
				WithMetrics(p.Metrics),
				WithParallelism(p.Config.Loader.Parallelism),
			)
		},
	),
	fx.Invoke(registerStartupLoad),
)

func registerStartupLoad(lc fx.Lifecycle, cfg *config.Config, m *Manager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if len(cfg.Documents) == 0 {
				logger.Info("No documents configured, waiting for documents to be added")
				return nil
			}
			loaded, err := m.LoadAll(ctx, cfg.Documents)
			if err != nil {
				return err
			}
			logger.Info("Loaded configured documents",
				zap.Int("loaded", loaded),
				zap.Int("configured", len(cfg.Documents)),
			)
			return nil
		},
	})
}
