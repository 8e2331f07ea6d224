package catalog

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/bakery-bliss/bakery/internal/dto"
	"github.com/bakery-bliss/bakery/internal/entity"
	"github.com/bakery-bliss/bakery/internal/presentation/http/response"
	service "github.com/bakery-bliss/bakery/internal/service/catalog"
	"github.com/bakery-bliss/bakery/internal/transport/http/identity"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bakery-bliss/bakery/transport/http/catalog")

// Service is the catalog behaviour the handler exposes.
type Service interface {
	ListProducts(ctx context.Context, category string) ([]*entity.Product, error)
	CreateProduct(ctx context.Context, actor workflow.Actor, in service.ProductInput) (*entity.Product, error)
	QuoteCustomCake(spec service.CakeSpec) (decimal.Decimal, error)
}

// Handler exposes catalog endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes. Browsing and quoting are public; creating products needs an identity.
func Register(e *echo.Echo, h *Handler, auth *identity.Middleware) {
	e.GET("/products", h.list)
	e.POST("/products", h.create, auth.Require())
	e.POST("/custom-cakes/quote", h.quote)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "products.list")
	defer span.End()

	products, err := h.svc.ListProducts(ctx, c.QueryParam("category"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(products).WithMeta("total", len(products)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.CreateProductRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.create")
	defer span.End()

	product, err := h.svc.CreateProduct(ctx, actor, service.ProductInput{
		Name:        payload.Name,
		Description: payload.Description,
		Category:    payload.Category,
		Price:       payload.Price,
		MainBakerID: payload.MainBakerID,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created().WithData(product).Build()
}

func (h *Handler) quote(c echo.Context) error {
	b := response.New(c)
	var payload dto.CustomCakeRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	price, err := h.svc.QuoteCustomCake(service.CakeSpec{
		Size:     payload.Size,
		Flavor:   payload.Flavor,
		Frosting: payload.Frosting,
		Layers:   payload.Layers,
		Message:  payload.Message,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]decimal.Decimal{"price": price}).Build()
}
