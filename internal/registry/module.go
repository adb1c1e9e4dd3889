package registry

import "go.uber.org/fx"

// Module provides the tool registrar, the ToolHost comes from the server module
var Module = fx.Module("registry",
	fx.Provide(NewRegistrar),
)
