package metrics

import "go.uber.org/fx"

// Module provides the shared Collector
var Module = fx.Module("metrics",
	fx.Provide(NewCollector),
)
