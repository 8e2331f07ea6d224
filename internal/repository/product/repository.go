package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bakery-bliss/bakery/internal/database"
	"github.com/bakery-bliss/bakery/internal/entity"
)

var repoTracer = otel.Tracer("github.com/bakery-bliss/bakery/repository/product")

// ErrNotFound is returned when a product is missing.
var ErrNotFound = errors.New("product not found")

// ListFilter narrows List.
type ListFilter struct {
	Category      string
	AvailableOnly bool
	MainBakerID   *int64
}

// Repository encapsulates catalog persistence.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a product repository.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// List returns products ordered by name.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.List", trace.WithAttributes(attribute.String("product.category", filter.Category)))
	defer span.End()

	var products []*entity.Product
	q := r.reader.NewSelect().Model(&products).Order("name ASC")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	if filter.MainBakerID != nil {
		q = q.Where("main_baker_id = ?", *filter.MainBakerID)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return products, nil
}

// GetByID fetches one product.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	p := new(entity.Product)
	err := r.reader.NewSelect().Model(p).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetMany returns the products with the given ids keyed by id. Missing ids are absent from the map.
func (r *Repository) GetMany(ctx context.Context, ids []int64) (map[int64]*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.GetMany", trace.WithAttributes(attribute.Int("product.count", len(ids))))
	defer span.End()

	out := make(map[int64]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []*entity.Product
	if err := r.reader.NewSelect().Model(&products).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, p *entity.Product) error {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Create", trace.WithAttributes(attribute.String("product.name", p.Name)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(p).Returning("id").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}
