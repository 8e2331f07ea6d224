package app

import (
	"go.uber.org/fx"

	"github.com/bakery-bliss/bakery/internal/cache"
	"github.com/bakery-bliss/bakery/internal/commission"
	"github.com/bakery-bliss/bakery/internal/config"
	"github.com/bakery-bliss/bakery/internal/database"
	"github.com/bakery-bliss/bakery/internal/jobs"
	"github.com/bakery-bliss/bakery/internal/logger"
	"github.com/bakery-bliss/bakery/internal/messaging"
	"github.com/bakery-bliss/bakery/internal/observability"
	repositoryapplication "github.com/bakery-bliss/bakery/internal/repository/application"
	repositoryearning "github.com/bakery-bliss/bakery/internal/repository/earning"
	repositorynotification "github.com/bakery-bliss/bakery/internal/repository/notification"
	repositoryorder "github.com/bakery-bliss/bakery/internal/repository/order"
	repositoryproduct "github.com/bakery-bliss/bakery/internal/repository/product"
	repositoryuser "github.com/bakery-bliss/bakery/internal/repository/user"
	grpcserver "github.com/bakery-bliss/bakery/internal/server/grpc"
	httpserver "github.com/bakery-bliss/bakery/internal/server/http"
	serviceapplication "github.com/bakery-bliss/bakery/internal/service/application"
	servicecatalog "github.com/bakery-bliss/bakery/internal/service/catalog"
	serviceearning "github.com/bakery-bliss/bakery/internal/service/earning"
	serviceorder "github.com/bakery-bliss/bakery/internal/service/order"
	serviceuser "github.com/bakery-bliss/bakery/internal/service/user"
	transporthttp "github.com/bakery-bliss/bakery/internal/transport/http"
	"github.com/bakery-bliss/bakery/internal/worker"
	workerorder "github.com/bakery-bliss/bakery/internal/worker/order"
)

// Storage is the minimal graph needed to reach the database.
var Storage = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	database.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Storage,
	cache.Module,
	messaging.Module,
	commission.Module,
	repositoryorder.Module,
	repositoryuser.Module,
	repositoryproduct.Module,
	repositoryapplication.Module,
	repositoryearning.Module,
	repositorynotification.Module,
	serviceorder.Module,
	servicecatalog.Module,
	serviceapplication.Module,
	serviceearning.Module,
	serviceuser.Module,
)

// HTTP wires the HTTP and gRPC transports on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background event processing and scheduled jobs.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
	jobs.Module,
)

// Module is the default application wiring (HTTP and gRPC).
var Module = HTTP
