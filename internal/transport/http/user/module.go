package user

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	"github.com/bakery-bliss/bakery/internal/transport/http/identity"
)

// Module wires HTTP account and team handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, auth *identity.Middleware) {
		Register(e, h, auth)
	}),
)
