package schema

import (
	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"go.uber.org/fx"
)

// Module provides the resolver and converter over the shared catalog
var Module = fx.Module("schema",
	fx.Provide(
		func(c *catalog.Catalog) *Resolver { return NewResolver(c) },
		NewConverter,
	),
)
