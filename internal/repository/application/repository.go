package application

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

var repoTracer = otel.Tracer("github.com/bakery-bliss/bakery/repository/application")

var (
	// ErrNotFound is returned when an application is missing.
	ErrNotFound = errors.New("application not found")
	// ErrAlreadyReviewed is returned when the application is no longer pending.
	ErrAlreadyReviewed = errors.New("application already reviewed")
)

// ListFilter narrows List. Zero values are not filtered on.
type ListFilter struct {
	UserID            *int64
	TargetMainBakerID *int64
	RequestedRole     string
	Status            string
}

// Decision is the outcome of a review persisted atomically with its side effects.
type Decision struct {
	ApplicationID int64
	Status        string
	ReviewerID    int64
	Note          string
	ReviewedAt    time.Time

	// UserID is the applicant. NewRole empty means the role is unchanged.
	UserID     int64
	NewRole    string
	JoinTeamOf *int64
	LeaveTeams bool
}

// Repository persists baker applications.
type Repository struct {
	conns  *database.Connections
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires an application repository.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{conns: conns, writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a pending application.
func (r *Repository) Create(ctx context.Context, app *entity.BakerApplication) error {
	ctx, span := repoTracer.Start(ctx, "ApplicationRepository.Create", trace.WithAttributes(attribute.Int64("user.id", app.UserID)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(app).Returning("id").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// HasPending reports whether userID has an application awaiting review.
func (r *Repository) HasPending(ctx context.Context, userID int64) (bool, error) {
	return r.reader.NewSelect().
		Model((*entity.BakerApplication)(nil)).
		Where("user_id = ?", userID).
		Where("status = ?", entity.ApplicationPending).
		Exists(ctx)
}

// GetByID fetches one application.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.BakerApplication, error) {
	app := new(entity.BakerApplication)
	err := r.reader.NewSelect().Model(app).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// List returns applications newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*entity.BakerApplication, error) {
	ctx, span := repoTracer.Start(ctx, "ApplicationRepository.List", trace.WithAttributes(attribute.String("application.status", filter.Status)))
	defer span.End()

	var apps []*entity.BakerApplication
	q := r.reader.NewSelect().Model(&apps).OrderExpr("created_at DESC, id DESC")
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.TargetMainBakerID != nil {
		q = q.Where("target_main_baker_id = ?", *filter.TargetMainBakerID)
	}
	if filter.RequestedRole != "" {
		q = q.Where("requested_role = ?", filter.RequestedRole)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return apps, nil
}

// Review closes a pending application and applies role and team changes in one transaction.
func (r *Repository) Review(ctx context.Context, d Decision) error {
	ctx, span := repoTracer.Start(ctx, "ApplicationRepository.Review", trace.WithAttributes(
		attribute.Int64("application.id", d.ApplicationID),
		attribute.String("application.status", d.Status),
	))
	defer span.End()

	err := r.conns.InTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*entity.BakerApplication)(nil)).
			Set("status = ?", d.Status).
			Set("reviewer_id = ?", d.ReviewerID).
			Set("review_note = ?", d.Note).
			Set("reviewed_at = ?", d.ReviewedAt).
			Where("id = ?", d.ApplicationID).
			Where("status = ?", entity.ApplicationPending).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n == 0 {
			return ErrAlreadyReviewed
		}

		if d.NewRole != "" {
			if _, err := tx.NewUpdate().
				Model((*entity.User)(nil)).
				Set("role = ?", d.NewRole).
				Set("updated_at = ?", d.ReviewedAt).
				Where("id = ?", d.UserID).
				Exec(ctx); err != nil {
				return fmt.Errorf("update user role: %w", err)
			}
		}
		if d.LeaveTeams {
			if _, err := tx.NewDelete().
				Model((*entity.BakerTeam)(nil)).
				Where("junior_baker_id = ?", d.UserID).
				Exec(ctx); err != nil {
				return fmt.Errorf("remove team memberships: %w", err)
			}
		}
		if d.JoinTeamOf != nil {
			member := &entity.BakerTeam{MainBakerID: *d.JoinTeamOf, JuniorBakerID: d.UserID, CreatedAt: d.ReviewedAt}
			if _, err := tx.NewInsert().Model(member).Exec(ctx); err != nil {
				return fmt.Errorf("add team member: %w", err)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrAlreadyReviewed) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "review failed")
	}
	return err
}
