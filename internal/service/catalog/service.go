package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/entity"
	productrepo "github.com/bakery-bliss/bakery/internal/repository/product"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/bakery-bliss/bakery/service/catalog")

// Store is the product persistence the service needs.
type Store interface {
	List(ctx context.Context, filter productrepo.ListFilter) ([]*entity.Product, error)
	Create(ctx context.Context, p *entity.Product) error
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *productrepo.Repository
	Logger     *zap.Logger
}

// Service manages the product catalog.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Repository, p.Logger)
}

func newService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ProductInput is the data needed to create a product.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	// MainBakerID is only honoured for admins; main bakers always own what they create.
	MainBakerID *int64
}

// ListProducts returns available products, optionally in one category.
func (s *Service) ListProducts(ctx context.Context, category string) ([]*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()

	products, err := s.store.List(ctx, productrepo.ListFilter{
		Category:      strings.TrimSpace(category),
		AvailableOnly: true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list products", errorbank.WithCause(err))
	}
	return products, nil
}

// CreateProduct adds a product owned by a main baker.
func (s *Service) CreateProduct(ctx context.Context, actor workflow.Actor, in ProductInput) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateProduct")
	defer span.End()

	var owner int64
	switch actor.Role {
	case workflow.RoleMainBaker:
		owner = actor.UserID
	case workflow.RoleAdmin:
		if in.MainBakerID == nil || *in.MainBakerID <= 0 {
			return nil, errorbank.BadRequest("main_baker_id is required when an admin creates a product")
		}
		owner = *in.MainBakerID
	default:
		return nil, errorbank.Forbidden("only main bakers and admins can create products", errorbank.WithCode("unauthorized"))
	}

	name := strings.TrimSpace(in.Name)
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if name == "" || category == "" {
		return nil, errorbank.BadRequest("name and category are required")
	}
	if !in.Price.IsPositive() {
		return nil, errorbank.BadRequest("price must be greater than zero")
	}

	now := s.now()
	product := &entity.Product{
		MainBakerID: owner,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Price:       in.Price.Round(2),
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create product", errorbank.WithCause(err))
	}

	s.logger.Info("product created", zap.Int64("id", product.ID), zap.Int64("main_baker_id", owner))
	return product, nil
}

// QuoteCustomCake prices a cake design, reporting invalid designs as bad requests.
func (s *Service) QuoteCustomCake(spec CakeSpec) (decimal.Decimal, error) {
	price, err := PriceCustomCake(spec)
	if err != nil {
		return decimal.Zero, invalidCake(err)
	}
	return price, nil
}

func invalidCake(err error) error {
	return errorbank.BadRequest("invalid custom cake design",
		errorbank.WithCode("invalid_cake"),
		errorbank.WithDetail("reason", err.Error()),
		errorbank.WithCause(err),
	)
}
