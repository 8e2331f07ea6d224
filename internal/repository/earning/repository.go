package earning

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bakery-bliss/bakery/internal/database"
	"github.com/bakery-bliss/bakery/internal/entity"
)

var repoTracer = otel.Tracer("github.com/bakery-bliss/bakery/repository/earning")

// Summary aggregates the earnings of one baker.
type Summary struct {
	BakerID     int64           `bun:"baker_id"`
	Count       int             `bun:"count"`
	BaseAmount  decimal.Decimal `bun:"base_amount"`
	BonusAmount decimal.Decimal `bun:"bonus_amount"`
	Amount      decimal.Decimal `bun:"amount"`
}

// Repository reads baker earnings. Rows are written by the order repository.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires an earnings repository.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// ListByBaker returns the earnings of bakerID newest first.
func (r *Repository) ListByBaker(ctx context.Context, bakerID int64, limit, offset int) ([]*entity.BakerEarning, int, error) {
	ctx, span := repoTracer.Start(ctx, "EarningRepository.ListByBaker", trace.WithAttributes(attribute.Int64("baker.id", bakerID)))
	defer span.End()

	var rows []*entity.BakerEarning
	q := r.reader.NewSelect().Model(&rows).Where("baker_id = ?", bakerID).OrderExpr("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	total, err := q.ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return rows, total, nil
}

// Summary totals the earnings of bakerID. A baker without earnings gets zero amounts.
func (r *Repository) Summary(ctx context.Context, bakerID int64) (Summary, error) {
	ctx, span := repoTracer.Start(ctx, "EarningRepository.Summary", trace.WithAttributes(attribute.Int64("baker.id", bakerID)))
	defer span.End()

	out := Summary{BakerID: bakerID}
	err := r.reader.NewSelect().
		Model((*entity.BakerEarning)(nil)).
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(base_amount), 0) AS base_amount").
		ColumnExpr("COALESCE(SUM(bonus_amount), 0) AS bonus_amount").
		ColumnExpr("COALESCE(SUM(amount), 0) AS amount").
		Where("baker_id = ?", bakerID).
		Scan(ctx, &out.Count, &out.BaseAmount, &out.BonusAmount, &out.Amount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return Summary{}, err
	}
	return out, nil
}
