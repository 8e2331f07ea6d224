package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bakery-bliss/bakery/internal/database"
	"github.com/bakery-bliss/bakery/internal/entity"
)

var repoTracer = otel.Tracer("github.com/bakery-bliss/bakery/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrConcurrentModification is returned when the order changed since it was read.
	ErrConcurrentModification = errors.New("order was modified concurrently")
)

// NewLine is one checkout line. Cake is inserted first when the line is a custom cake.
type NewLine struct {
	Item *entity.OrderItem
	Cake *entity.CustomCake
}

// ListFilter narrows List. Nil IDs are not filtered on.
type ListFilter struct {
	CustomerID    *int64
	MainBakerID   *int64
	JuniorBakerID *int64
	Status        string
	Limit         int
	Offset        int
}

// Change is a versioned mutation of an order persisted in one transaction.
type Change struct {
	Order           *entity.Order
	ExpectedVersion int64
	History         *entity.OrderStatusHistory
	Earnings        []*entity.BakerEarning
}

// Repository encapsulates read/write access for orders.
type Repository struct {
	conns  *database.Connections
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		conns:  conns,
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists an order with its lines, shipping record and initial history row.
func (r *Repository) Create(ctx context.Context, order *entity.Order, lines []NewLine, shipping *entity.ShippingInfo) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(
		attribute.String("order.number", order.Number),
		attribute.Int("order.lines", len(lines)),
	))
	defer span.End()

	err := r.conns.InTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Returning("id, version").Exec(ctx); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		items := make([]*entity.OrderItem, 0, len(lines))
		for _, line := range lines {
			if line.Cake != nil {
				if _, err := tx.NewInsert().Model(line.Cake).Returning("id").Exec(ctx); err != nil {
					return fmt.Errorf("insert custom cake: %w", err)
				}
				line.Item.CustomCakeID = &line.Cake.ID
			}
			line.Item.OrderID = order.ID
			items = append(items, line.Item)
		}
		if len(items) > 0 {
			if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
				return fmt.Errorf("insert order items: %w", err)
			}
		}
		order.Items = items

		if shipping != nil {
			shipping.OrderID = order.ID
			if _, err := tx.NewInsert().Model(shipping).Exec(ctx); err != nil {
				return fmt.Errorf("insert shipping info: %w", err)
			}
			order.Shipping = shipping
		}

		customer := order.CustomerID
		history := &entity.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ActorID:   &customer,
			ActorRole: "customer",
			CreatedAt: order.CreatedAt,
		}
		if _, err := tx.NewInsert().Model(history).Exec(ctx); err != nil {
			return fmt.Errorf("insert order history: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order with items and shipping using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	return r.getOne(ctx, span, "?TableAlias.id = ?", id)
}

// GetByNumber fetches an order by its human-readable number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByNumber", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	return r.getOne(ctx, span, "?TableAlias.number = ?", number)
}

func (r *Repository) getOne(ctx context.Context, span trace.Span, where string, arg any) (*entity.Order, error) {
	order := new(entity.Order)
	err := r.reader.NewSelect().
		Model(order).
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id ASC")
		}).
		Relation("Shipping").
		Where(where, arg).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns one page of orders matching filter, newest first, plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*entity.Order, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(
		attribute.String("order.status", filter.Status),
		attribute.Int("page.limit", filter.Limit),
		attribute.Int("page.offset", filter.Offset),
	))
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().Model(&orders).OrderExpr("created_at DESC, id DESC")
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.MainBakerID != nil {
		q = q.Where("main_baker_id = ?", *filter.MainBakerID)
	}
	if filter.JuniorBakerID != nil {
		q = q.Where("junior_baker_id = ?", *filter.JuniorBakerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return orders, total, nil
}

// ApplyChange writes the order's workflow columns if its version still equals
// ExpectedVersion, then appends history and earnings in the same transaction.
func (r *Repository) ApplyChange(ctx context.Context, change Change) error {
	if change.Order == nil {
		return errors.New("nil order")
	}
	order := change.Order
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ApplyChange", trace.WithAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("order.status", order.Status),
		attribute.Int64("order.version", change.ExpectedVersion),
	))
	defer span.End()

	err := r.conns.InTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		// Every written column is an explicit Set: bun ignores Column once Set is used.
		res, err := tx.NewUpdate().
			Model(order).
			Set("status = ?", order.Status).
			Set("main_baker_id = ?", order.MainBakerID).
			Set("junior_baker_id = ?", order.JuniorBakerID).
			Set("quality_feedback = NULLIF(?, '')", order.QualityFeedback).
			Set("updated_at = ?", order.UpdatedAt).
			Set("version = ?", change.ExpectedVersion+1).
			Where("id = ?", order.ID).
			Where("version = ?", change.ExpectedVersion).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return ErrConcurrentModification
		}

		if change.History != nil {
			change.History.OrderID = order.ID
			if _, err := tx.NewInsert().Model(change.History).Exec(ctx); err != nil {
				return fmt.Errorf("insert order history: %w", err)
			}
		}
		if len(change.Earnings) > 0 {
			for _, e := range change.Earnings {
				e.OrderID = order.ID
			}
			if _, err := tx.NewInsert().Model(&change.Earnings).Exec(ctx); err != nil {
				return fmt.Errorf("insert baker earnings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrConcurrentModification) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "update failed")
		return err
	}

	order.Version = change.ExpectedVersion + 1
	return nil
}

// History returns the status history of an order, oldest first.
func (r *Repository) History(ctx context.Context, orderID int64) ([]*entity.OrderStatusHistory, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.History", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var rows []*entity.OrderStatusHistory
	err := r.reader.NewSelect().Model(&rows).Where("order_id = ?", orderID).Order("id ASC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// ListOverdue returns orders whose deadline passed before now while still in production
// and that have not been flagged yet.
func (r *Repository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListOverdue")
	defer span.End()

	var orders []*entity.Order
	q := r.writer.NewSelect().
		Model(&orders).
		Where("deadline IS NOT NULL").
		Where("deadline < ?", now).
		Where("overdue_notified_at IS NULL").
		Where("status IN (?)", bun.In([]string{"pending", "processing", "quality_check"})).
		Order("deadline ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// MarkOverdueNotified stamps the given orders so later sweeps skip them.
// The workflow version is left alone; this is bookkeeping, not a transition.
func (r *Repository) MarkOverdueNotified(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.MarkOverdueNotified", trace.WithAttributes(attribute.Int("orders.count", len(ids))))
	defer span.End()

	_, err := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("overdue_notified_at = ?", at).
		Where("id IN (?)", bun.In(ids)).
		Where("overdue_notified_at IS NULL").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("mark overdue notified: %w", err)
	}
	return nil
}
