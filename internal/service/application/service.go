package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/entity"
	apprepo "github.com/bakery-bliss/bakery/internal/repository/application"
	userrepo "github.com/bakery-bliss/bakery/internal/repository/user"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/bakery-bliss/bakery/service/application")

// Store is the application persistence the service needs.
type Store interface {
	Create(ctx context.Context, app *entity.BakerApplication) error
	HasPending(ctx context.Context, userID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*entity.BakerApplication, error)
	List(ctx context.Context, filter apprepo.ListFilter) ([]*entity.BakerApplication, error)
	Review(ctx context.Context, d apprepo.Decision) error
}

// Users looks up accounts referenced by applications.
type Users interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *apprepo.Repository
	Users      *userrepo.Repository
	Logger     *zap.Logger
}

// Service handles role promotion applications.
type Service struct {
	store  Store
	users  Users
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Repository, p.Users, p.Logger)
}

func newService(store Store, users Users, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, users: users, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// SubmitInput is a request to be promoted.
type SubmitInput struct {
	RequestedRole     string
	TargetMainBakerID *int64
	Reason            string
}

// Submit files an application. Customers apply to become junior bakers on a named
// main baker's team; junior bakers apply to become main bakers.
func (s *Service) Submit(ctx context.Context, actor workflow.Actor, in SubmitInput) (*entity.BakerApplication, error) {
	ctx, span := serviceTracer.Start(ctx, "ApplicationService.Submit", trace.WithAttributes(attribute.Int64("user.id", actor.UserID)))
	defer span.End()

	requested, err := workflow.ParseRole(in.RequestedRole)
	if err != nil {
		return nil, errorbank.BadRequest("unknown requested role", errorbank.WithCause(err))
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, errorbank.BadRequest("reason is required")
	}

	app := &entity.BakerApplication{
		UserID:        actor.UserID,
		CurrentRole:   actor.Role.String(),
		RequestedRole: requested.String(),
		Reason:        reason,
		Status:        entity.ApplicationPending,
		CreatedAt:     s.now(),
	}

	switch {
	case actor.Role == workflow.RoleCustomer && requested == workflow.RoleJuniorBaker:
		if in.TargetMainBakerID == nil {
			return nil, errorbank.BadRequest("target_main_baker_id is required to join a team")
		}
		target, err := s.users.GetByID(ctx, *in.TargetMainBakerID)
		if errors.Is(err, userrepo.ErrNotFound) || (err == nil && target.Role != workflow.RoleMainBaker.String()) {
			return nil, errorbank.BadRequest("target main baker does not exist", errorbank.WithCode("unknown_main_baker"))
		}
		if err != nil {
			return nil, s.fail(span, err)
		}
		id := target.ID
		app.TargetMainBakerID = &id
	case actor.Role == workflow.RoleJuniorBaker && requested == workflow.RoleMainBaker:
	default:
		return nil, errorbank.Forbidden("a "+actor.Role.String()+" cannot apply to become "+requested.String(),
			errorbank.WithCode("unauthorized"))
	}

	pending, err := s.store.HasPending(ctx, actor.UserID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if pending {
		return nil, errorbank.Conflict("you already have a pending application", errorbank.WithCode("application_pending"))
	}

	if err := s.store.Create(ctx, app); err != nil {
		return nil, s.fail(span, err)
	}
	s.logger.Info("application submitted",
		zap.Int64("id", app.ID),
		zap.Int64("user_id", app.UserID),
		zap.String("requested_role", app.RequestedRole),
	)
	return app, nil
}

// List returns the applications actor may see, optionally by status.
func (s *Service) List(ctx context.Context, actor workflow.Actor, status string) ([]*entity.BakerApplication, error) {
	ctx, span := serviceTracer.Start(ctx, "ApplicationService.List")
	defer span.End()

	filter := apprepo.ListFilter{Status: strings.ToLower(strings.TrimSpace(status))}
	switch filter.Status {
	case "", entity.ApplicationPending, entity.ApplicationApproved, entity.ApplicationRejected:
	default:
		return nil, errorbank.BadRequest("unknown application status")
	}

	uid := actor.UserID
	switch actor.Role {
	case workflow.RoleAdmin:
	case workflow.RoleMainBaker:
		filter.TargetMainBakerID = &uid
		filter.RequestedRole = workflow.RoleJuniorBaker.String()
	default:
		filter.UserID = &uid
	}

	apps, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return apps, nil
}

// Approve grants the requested role.
func (s *Service) Approve(ctx context.Context, actor workflow.Actor, id int64, note string) (*entity.BakerApplication, error) {
	return s.review(ctx, actor, id, note, true)
}

// Reject closes the application without changing the applicant.
func (s *Service) Reject(ctx context.Context, actor workflow.Actor, id int64, note string) (*entity.BakerApplication, error) {
	return s.review(ctx, actor, id, note, false)
}

func (s *Service) review(ctx context.Context, actor workflow.Actor, id int64, note string, approve bool) (*entity.BakerApplication, error) {
	ctx, span := serviceTracer.Start(ctx, "ApplicationService.Review", trace.WithAttributes(
		attribute.Int64("application.id", id),
		attribute.Bool("application.approve", approve),
	))
	defer span.End()

	app, err := s.store.GetByID(ctx, id)
	if errors.Is(err, apprepo.ErrNotFound) {
		return nil, errorbank.NotFound("application not found", errorbank.WithCode("not_found"))
	}
	if err != nil {
		return nil, s.fail(span, err)
	}
	if !canReview(actor, app) {
		return nil, errorbank.Forbidden("you cannot review this application", errorbank.WithCode("unauthorized"))
	}
	if app.Status != entity.ApplicationPending {
		return nil, alreadyReviewed()
	}

	now := s.now()
	d := apprepo.Decision{
		ApplicationID: app.ID,
		Status:        entity.ApplicationRejected,
		ReviewerID:    actor.UserID,
		Note:          strings.TrimSpace(note),
		ReviewedAt:    now,
		UserID:        app.UserID,
	}
	if approve {
		d.Status = entity.ApplicationApproved
		d.NewRole = app.RequestedRole
		switch app.RequestedRole {
		case workflow.RoleJuniorBaker.String():
			d.JoinTeamOf = app.TargetMainBakerID
		case workflow.RoleMainBaker.String():
			d.LeaveTeams = true
		}
	}

	if err := s.store.Review(ctx, d); err != nil {
		if errors.Is(err, apprepo.ErrAlreadyReviewed) {
			return nil, alreadyReviewed()
		}
		return nil, s.fail(span, err)
	}

	app.Status = d.Status
	app.ReviewerID = &d.ReviewerID
	app.ReviewNote = d.Note
	app.ReviewedAt = &now
	s.logger.Info("application reviewed",
		zap.Int64("id", app.ID),
		zap.String("status", app.Status),
		zap.Int64("reviewer_id", actor.UserID),
	)
	return app, nil
}

// canReview allows admins everything and main bakers the junior applications addressed to them.
func canReview(actor workflow.Actor, app *entity.BakerApplication) bool {
	switch actor.Role {
	case workflow.RoleAdmin:
		return true
	case workflow.RoleMainBaker:
		return app.RequestedRole == workflow.RoleJuniorBaker.String() &&
			app.TargetMainBakerID != nil && *app.TargetMainBakerID == actor.UserID
	default:
		return false
	}
}

func alreadyReviewed() error {
	return errorbank.Conflict("application has already been reviewed", errorbank.WithCode("already_reviewed"))
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "application operation failed")
	s.logger.Error("application operation failed", zap.Error(err))
	return errorbank.Internal("application operation failed", errorbank.WithCause(err))
}
