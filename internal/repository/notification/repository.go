package notification

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/bakery-bliss/bakery/internal/database"
	"github.com/bakery-bliss/bakery/internal/entity"
)

// Repository stores user notifications.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a notification repository.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts notifications in one statement.
func (r *Repository) Create(ctx context.Context, notes ...*entity.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	_, err := r.writer.NewInsert().Model(&notes).Exec(ctx)
	return err
}

// ListByUser returns the latest notifications of userID.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	var notes []*entity.Notification
	q := r.reader.NewSelect().Model(&notes).Where("user_id = ?", userID).OrderExpr("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return notes, nil
}
