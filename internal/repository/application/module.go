package application

import "go.uber.org/fx"

// Module provides the application repository to Fx.
var Module = fx.Provide(NewRepository)
