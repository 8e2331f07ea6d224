package user

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/bakery-bliss/bakery/internal/entity"
	"github.com/bakery-bliss/bakery/internal/presentation/http/response"
	service "github.com/bakery-bliss/bakery/internal/service/user"
	"github.com/bakery-bliss/bakery/internal/transport/http/identity"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bakery-bliss/bakery/transport/http/user")

// Service is the account behaviour the handler exposes.
type Service interface {
	Profile(ctx context.Context, actor workflow.Actor) (*entity.User, error)
	TeamMembers(ctx context.Context, actor workflow.Actor, mainID int64) ([]*entity.User, error)
	Notifications(ctx context.Context, actor workflow.Actor, limit int) ([]*entity.Notification, error)
}

// Handler exposes account endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs a user Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, auth *identity.Middleware) {
	e.GET("/me", h.profile, auth.Require())
	e.GET("/me/notifications", h.notifications, auth.Require())
	e.GET("/teams/:id/members", h.team, auth.Require())
}

func (h *Handler) profile(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.profile")
	defer span.End()

	u, err := h.svc.Profile(ctx, actor)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(u).Build()
}

func (h *Handler) team(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	mainID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "teams.members")
	defer span.End()

	members, err := h.svc.TeamMembers(ctx, actor, mainID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(members).WithMeta("total", len(members)).Build()
}

func (h *Handler) notifications(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return b.WithError(errorbank.BadRequest("invalid limit", errorbank.WithCause(err))).Build()
		}
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.notifications")
	defer span.End()

	notes, err := h.svc.Notifications(ctx, actor, limit)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(notes).Build()
}
