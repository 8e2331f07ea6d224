package order

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bakery-bliss/bakery/internal/dto"
	"github.com/bakery-bliss/bakery/internal/entity"
	"github.com/bakery-bliss/bakery/internal/presentation/http/response"
	"github.com/bakery-bliss/bakery/internal/service/catalog"
	service "github.com/bakery-bliss/bakery/internal/service/order"
	"github.com/bakery-bliss/bakery/internal/transport/http/identity"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bakery-bliss/bakery/transport/http/order")

// Service is the order behaviour the handler exposes.
type Service interface {
	Get(ctx context.Context, actor workflow.Actor, ref string) (*entity.Order, error)
	List(ctx context.Context, actor workflow.Actor, in service.ListInput) (service.Page, error)
	Checkout(ctx context.Context, actor workflow.Actor, in service.CheckoutInput) (*entity.Order, error)
	Transition(ctx context.Context, actor workflow.Actor, ref, target, feedback string) (*entity.Order, error)
	Approve(ctx context.Context, actor workflow.Actor, ref, note string) (*entity.Order, error)
	Reject(ctx context.Context, actor workflow.Actor, ref, feedback string) (*entity.Order, error)
	Assign(ctx context.Context, actor workflow.Actor, ref string, juniorID int64) (*entity.Order, error)
	History(ctx context.Context, actor workflow.Actor, ref string) ([]*entity.OrderStatusHistory, error)
	Actions(order *entity.Order, actor workflow.Actor) []string
}

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler, auth *identity.Middleware) {
	g := e.Group("/orders", auth.Require())
	g.GET("", h.list)
	g.POST("", h.checkout)
	g.GET("/:id", h.get)
	g.GET("/:id/history", h.history)
	g.PATCH("/:id/status", h.transition)
	g.PATCH("/:id/assign", h.assign)
	g.PATCH("/:id/approve", h.approve)
	g.PATCH("/:id/reject", h.reject)
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.get", trace.WithAttributes(attribute.String("order.ref", c.Param("id"))))
	defer span.End()

	order, err := h.svc.Get(ctx, actor, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponse(order, h.svc.Actions(order, actor))).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	in := service.ListInput{Status: c.QueryParam("status")}
	if in.Page, err = optionalInt(c, "page"); err != nil {
		return b.WithError(err).Build()
	}
	if in.Limit, err = optionalInt(c, "limit"); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	page, err := h.svc.List(ctx, actor, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.OrderResponse, 0, len(page.Orders))
	for _, o := range page.Orders {
		out = append(out, dto.NewOrderResponse(o, h.svc.Actions(o, actor)))
	}
	return b.WithData(out).WithPage(page.Page, page.Limit, page.Total).Build()
}

func (h *Handler) checkout(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.CheckoutRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	in := service.CheckoutInput{
		IsRush:   payload.IsRush,
		Deadline: payload.Deadline,
		Shipping: entity.ShippingInfo{
			RecipientName: payload.Shipping.RecipientName,
			Phone:         payload.Shipping.Phone,
			AddressLine:   payload.Shipping.AddressLine,
			City:          payload.Shipping.City,
			PostalCode:    payload.Shipping.PostalCode,
			Notes:         payload.Shipping.Notes,
		},
	}
	for _, it := range payload.Items {
		item := service.CheckoutItem{Quantity: it.Quantity}
		if it.ProductID != nil {
			item.ProductID = *it.ProductID
		}
		if cake := it.CustomCake; cake != nil {
			item.Cake = &catalog.CakeSpec{
				Size:     cake.Size,
				Flavor:   cake.Flavor,
				Frosting: cake.Frosting,
				Layers:   cake.Layers,
				Message:  cake.Message,
			}
		}
		in.Items = append(in.Items, item)
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.checkout", trace.WithAttributes(attribute.Int("order.lines", len(in.Items))))
	defer span.End()

	order, err := h.svc.Checkout(ctx, actor, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created().WithData(dto.NewOrderResponse(order, h.svc.Actions(order, actor))).Build()
}

func (h *Handler) history(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.history", trace.WithAttributes(attribute.String("order.ref", c.Param("id"))))
	defer span.End()

	rows, err := h.svc.History(ctx, actor, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewHistoryResponses(rows)).Build()
}

func (h *Handler) transition(c echo.Context) error {
	var payload dto.StatusRequest
	return h.mutate(c, "orders.transition", &payload, func(ctx context.Context, actor workflow.Actor, ref string) (*entity.Order, error) {
		if payload.Status == "" {
			return nil, errorbank.BadRequest("status is required")
		}
		return h.svc.Transition(ctx, actor, ref, payload.Status, payload.Feedback)
	})
}

func (h *Handler) assign(c echo.Context) error {
	var payload dto.AssignRequest
	return h.mutate(c, "orders.assign", &payload, func(ctx context.Context, actor workflow.Actor, ref string) (*entity.Order, error) {
		return h.svc.Assign(ctx, actor, ref, payload.BakerID)
	})
}

func (h *Handler) approve(c echo.Context) error {
	var payload dto.ReviewRequest
	return h.mutate(c, "orders.approve", &payload, func(ctx context.Context, actor workflow.Actor, ref string) (*entity.Order, error) {
		return h.svc.Approve(ctx, actor, ref, firstNonEmpty(payload.Feedback, payload.Note))
	})
}

func (h *Handler) reject(c echo.Context) error {
	var payload dto.ReviewRequest
	return h.mutate(c, "orders.reject", &payload, func(ctx context.Context, actor workflow.Actor, ref string) (*entity.Order, error) {
		return h.svc.Reject(ctx, actor, ref, firstNonEmpty(payload.Feedback, payload.Note))
	})
}

type mutation func(ctx context.Context, actor workflow.Actor, ref string) (*entity.Order, error)

// mutate binds payload, runs fn for the order in the path and renders the updated order.
func (h *Handler) mutate(c echo.Context, spanName string, payload any, fn mutation) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	if err := c.Bind(payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ref := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), spanName, trace.WithAttributes(
		attribute.String("order.ref", ref),
		attribute.String("actor.role", actor.Role.String()),
	))
	defer span.End()

	order, err := fn(ctx, actor, ref)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponse(order, h.svc.Actions(order, actor))).Build()
}

func optionalInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errorbank.BadRequest("invalid "+name, errorbank.WithCause(err))
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
