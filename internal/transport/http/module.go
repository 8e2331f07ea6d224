package http

import (
	"go.uber.org/fx"

	applicationtransport "github.com/bakery-bliss/bakery/internal/transport/http/application"
	catalogtransport "github.com/bakery-bliss/bakery/internal/transport/http/catalog"
	earningtransport "github.com/bakery-bliss/bakery/internal/transport/http/earning"
	"github.com/bakery-bliss/bakery/internal/transport/http/identity"
	ordertransport "github.com/bakery-bliss/bakery/internal/transport/http/order"
	usertransport "github.com/bakery-bliss/bakery/internal/transport/http/user"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	identity.Module,
	ordertransport.Module,
	catalogtransport.Module,
	applicationtransport.Module,
	earningtransport.Module,
	usertransport.Module,
)
