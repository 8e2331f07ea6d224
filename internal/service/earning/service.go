package earning

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/entity"
	earningrepo "github.com/bakery-bliss/bakery/internal/repository/earning"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var serviceTracer = otel.Tracer("github.com/bakery-bliss/bakery/service/earning")

// Store reads baker earnings.
type Store interface {
	ListByBaker(ctx context.Context, bakerID int64, limit, offset int) ([]*entity.BakerEarning, int, error)
	Summary(ctx context.Context, bakerID int64) (earningrepo.Summary, error)
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *earningrepo.Repository
	Logger     *zap.Logger
}

// Service exposes commission records to bakers and admins.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{store: p.Repository, logger: p.Logger}
}

// Page is one page of earnings.
type Page struct {
	Earnings []*entity.BakerEarning
	Total    int
	Page     int
	Limit    int
}

// List returns the earnings of bakerID. Zero bakerID means the actor's own.
func (s *Service) List(ctx context.Context, actor workflow.Actor, bakerID int64, page, limit int) (Page, error) {
	ctx, span := serviceTracer.Start(ctx, "EarningService.List", trace.WithAttributes(attribute.Int64("baker.id", bakerID)))
	defer span.End()

	bakerID, err := resolveBaker(actor, bakerID)
	if err != nil {
		return Page{}, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	rows, total, err := s.store.ListByBaker(ctx, bakerID, limit, (page-1)*limit)
	if err != nil {
		return Page{}, s.fail(span, err)
	}
	return Page{Earnings: rows, Total: total, Page: page, Limit: limit}, nil
}

// Summary totals the earnings of bakerID. Zero bakerID means the actor's own.
func (s *Service) Summary(ctx context.Context, actor workflow.Actor, bakerID int64) (earningrepo.Summary, error) {
	ctx, span := serviceTracer.Start(ctx, "EarningService.Summary", trace.WithAttributes(attribute.Int64("baker.id", bakerID)))
	defer span.End()

	bakerID, err := resolveBaker(actor, bakerID)
	if err != nil {
		return earningrepo.Summary{}, err
	}
	sum, err := s.store.Summary(ctx, bakerID)
	if err != nil {
		return earningrepo.Summary{}, s.fail(span, err)
	}
	return sum, nil
}

// resolveBaker lets bakers read only their own earnings and admins read anyone's.
func resolveBaker(actor workflow.Actor, bakerID int64) (int64, error) {
	switch {
	case actor.Role == workflow.RoleAdmin:
		if bakerID <= 0 {
			return 0, errorbank.BadRequest("bakerId is required")
		}
		return bakerID, nil
	case actor.Role.IsBaker():
		if bakerID != 0 && bakerID != actor.UserID {
			return 0, errorbank.Forbidden("bakers can only view their own earnings", errorbank.WithCode("unauthorized"))
		}
		return actor.UserID, nil
	default:
		return 0, errorbank.Forbidden("only bakers have earnings", errorbank.WithCode("unauthorized"))
	}
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	if s.logger != nil {
		s.logger.Error("earnings query failed", zap.Error(err))
	}
	return errorbank.Internal("failed to load earnings", errorbank.WithCause(err))
}
