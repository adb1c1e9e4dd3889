package catalog

import "go.uber.org/fx"

// Module provides the process-wide operation catalog
var Module = fx.Module("catalog",
	fx.Provide(New),
)
