package application

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
	service "github.com/bakery-bliss/bakery/internal/service/application"
	"github.com/bakery-bliss/bakery/internal/transport/http/identity"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bakery-bliss/bakery/transport/http/application")

// Service is the application behaviour the handler exposes.
type Service interface {
	Submit(ctx context.Context, actor workflow.Actor, in service.SubmitInput) (*entity.BakerApplication, error)
	List(ctx context.Context, actor workflow.Actor, status string) ([]*entity.BakerApplication, error)
	Approve(ctx context.Context, actor workflow.Actor, id int64, note string) (*entity.BakerApplication, error)
	Reject(ctx context.Context, actor workflow.Actor, id int64, note string) (*entity.BakerApplication, error)
}

// Handler exposes baker application endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs an application Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, auth *identity.Middleware) {
	g := e.Group("/applications", auth.Require())
	g.POST("", h.submit)
	g.GET("", h.list)
	g.PATCH("/:id/approve", h.approve)
	g.PATCH("/:id/reject", h.reject)
}

func (h *Handler) submit(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.SubmitApplicationRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "applications.submit")
	defer span.End()

	app, err := h.svc.Submit(ctx, actor, service.SubmitInput{
		RequestedRole:     payload.RequestedRole,
		TargetMainBakerID: payload.TargetMainBakerID,
		Reason:            payload.Reason,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created().WithData(app).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "applications.list")
	defer span.End()

	apps, err := h.svc.List(ctx, actor, c.QueryParam("status"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(apps).WithMeta("total", len(apps)).Build()
}

func (h *Handler) approve(c echo.Context) error {
	return h.review(c, "applications.approve", h.svc.Approve)
}

func (h *Handler) reject(c echo.Context) error {
	return h.review(c, "applications.reject", h.svc.Reject)
}

type reviewFunc func(ctx context.Context, actor workflow.Actor, id int64, note string) (*entity.BakerApplication, error)

func (h *Handler) review(c echo.Context, spanName string, fn reviewFunc) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}
	var payload dto.ReviewRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), spanName, trace.WithAttributes(attribute.Int64("application.id", id)))
	defer span.End()

	note := payload.Note
	if note == "" {
		note = payload.Feedback
	}
	app, err := fn(ctx, actor, id, note)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(app).Build()
}
