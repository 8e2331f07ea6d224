package earning

import "go.uber.org/fx"

// Module provides the earnings service to Fx.
var Module = fx.Provide(NewService)
