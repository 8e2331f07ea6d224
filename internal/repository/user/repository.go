package user

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

var repoTracer = otel.Tracer("github.com/bakery-bliss/bakery/repository/user")

// ErrNotFound is returned when a user is missing.
var ErrNotFound = errors.New("user not found")

// Repository reads users and baker team memberships.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a user repository.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// GetByID fetches one user.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u := new(entity.User)
	err := r.reader.NewSelect().Model(u).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return u, nil
}

// Create inserts a user.
func (r *Repository) Create(ctx context.Context, u *entity.User) error {
	_, err := r.writer.NewInsert().Model(u).Returning("id").Exec(ctx)
	return err
}

// IsTeamMember reports whether juniorID is on the team of mainID.
func (r *Repository) IsTeamMember(ctx context.Context, mainID, juniorID int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.IsTeamMember", trace.WithAttributes(
		attribute.Int64("team.main_baker_id", mainID),
		attribute.Int64("team.junior_baker_id", juniorID),
	))
	defer span.End()

	ok, err := r.reader.NewSelect().
		Model((*entity.BakerTeam)(nil)).
		Where("main_baker_id = ?", mainID).
		Where("junior_baker_id = ?", juniorID).
		Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return false, err
	}
	return ok, nil
}

// TeamMembers lists the junior bakers supervised by mainID.
func (r *Repository) TeamMembers(ctx context.Context, mainID int64) ([]*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.TeamMembers", trace.WithAttributes(attribute.Int64("team.main_baker_id", mainID)))
	defer span.End()

	var users []*entity.User
	err := r.reader.NewSelect().
		Model(&users).
		Join("JOIN baker_teams AS bt ON bt.junior_baker_id = ?TableAlias.id").
		Where("bt.main_baker_id = ?", mainID).
		OrderExpr("?TableAlias.name ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return users, nil
}

// AddTeamMember links a junior baker to a main baker.
func (r *Repository) AddTeamMember(ctx context.Context, mainID, juniorID int64) error {
	_, err := r.writer.NewInsert().
		Model(&entity.BakerTeam{MainBakerID: mainID, JuniorBakerID: juniorID}).
		Exec(ctx)
	return err
}
