package requester

import (
	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"go.uber.org/fx"
)

// Module provides the request dispatcher and its authentication
var Module = fx.Module("requester",
	fx.Provide(
		fx.Annotate(
			NewHTTPRequester,
			fx.As(new(Invoker)),
		),
		fx.Annotate(
			func(cfg *config.Config) (*HTTPAuthManager, error) {
				return NewHTTPAuthManager(&cfg.EndpointConfig)
			},
			fx.As(new(AuthManager)),
		),
	),
)
