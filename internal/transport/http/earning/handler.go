package earning

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/bakery-bliss/bakery/internal/dto"
	"github.com/bakery-bliss/bakery/internal/presentation/http/response"
	earningrepo "github.com/bakery-bliss/bakery/internal/repository/earning"
	service "github.com/bakery-bliss/bakery/internal/service/earning"
	"github.com/bakery-bliss/bakery/internal/transport/http/identity"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bakery-bliss/bakery/transport/http/earning")

// Service is the earnings behaviour the handler exposes.
type Service interface {
	List(ctx context.Context, actor workflow.Actor, bakerID int64, page, limit int) (service.Page, error)
	Summary(ctx context.Context, actor workflow.Actor, bakerID int64) (earningrepo.Summary, error)
}

// Handler exposes earnings endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs an earnings Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, auth *identity.Middleware) {
	g := e.Group("/earnings", auth.Require())
	g.GET("", h.list)
	g.GET("/summary", h.summary)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	bakerID, err := queryInt64(c, "bakerId")
	if err != nil {
		return b.WithError(err).Build()
	}
	page, err := queryInt64(c, "page")
	if err != nil {
		return b.WithError(err).Build()
	}
	limit, err := queryInt64(c, "limit")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "earnings.list")
	defer span.End()

	res, err := h.svc.List(ctx, actor, bakerID, int(page), int(limit))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewEarningResponses(res.Earnings)).WithPage(res.Page, res.Limit, res.Total).Build()
}

func (h *Handler) summary(c echo.Context) error {
	b := response.New(c)
	actor, err := identity.MustActor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	bakerID, err := queryInt64(c, "bakerId")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "earnings.summary")
	defer span.End()

	sum, err := h.svc.Summary(ctx, actor, bakerID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.EarningSummaryResponse{
		BakerID:     sum.BakerID,
		Orders:      sum.Count,
		BaseAmount:  sum.BaseAmount,
		BonusAmount: sum.BonusAmount,
		Amount:      sum.Amount,
	}).Build()
}

func queryInt64(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid "+name, errorbank.WithCause(err))
	}
	return v, nil
}
