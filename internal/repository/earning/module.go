package earning

import "go.uber.org/fx"

// Module provides the earnings repository to Fx.
var Module = fx.Provide(NewRepository)
