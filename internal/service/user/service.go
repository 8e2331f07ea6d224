package user

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/entity"
	notificationrepo "github.com/bakery-bliss/bakery/internal/repository/notification"
	userrepo "github.com/bakery-bliss/bakery/internal/repository/user"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

const defaultNotificationLimit = 50

var serviceTracer = otel.Tracer("github.com/bakery-bliss/bakery/service/user")

// Directory reads accounts and team rosters.
type Directory interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	IsTeamMember(ctx context.Context, mainID, juniorID int64) (bool, error)
	TeamMembers(ctx context.Context, mainID int64) ([]*entity.User, error)
}

// Inbox reads stored notifications.
type Inbox interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error)
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Users         *userrepo.Repository
	Notifications *notificationrepo.Repository
	Logger        *zap.Logger
}

// Service serves account, team and notification reads.
type Service struct {
	users  Directory
	inbox  Inbox
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Users, p.Notifications, p.Logger)
}

func newService(users Directory, inbox Inbox, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, inbox: inbox, logger: logger}
}

// Profile returns the account of actor.
func (s *Service) Profile(ctx context.Context, actor workflow.Actor) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Profile", trace.WithAttributes(attribute.Int64("user.id", actor.UserID)))
	defer span.End()

	u, err := s.users.GetByID(ctx, actor.UserID)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.NotFound("user not found", errorbank.WithCode("not_found"))
	}
	if err != nil {
		return nil, s.fail(span, err)
	}
	return u, nil
}

// TeamMembers lists the junior bakers of mainID. The roster is visible to admins,
// the main baker and the members themselves.
func (s *Service) TeamMembers(ctx context.Context, actor workflow.Actor, mainID int64) ([]*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.TeamMembers", trace.WithAttributes(attribute.Int64("team.main_baker_id", mainID)))
	defer span.End()

	switch {
	case actor.Role == workflow.RoleAdmin:
	case actor.Role == workflow.RoleMainBaker && actor.UserID == mainID:
	case actor.Role == workflow.RoleJuniorBaker:
		ok, err := s.users.IsTeamMember(ctx, mainID, actor.UserID)
		if err != nil {
			return nil, s.fail(span, err)
		}
		if !ok {
			return nil, forbiddenTeam()
		}
	default:
		return nil, forbiddenTeam()
	}

	main, err := s.users.GetByID(ctx, mainID)
	if errors.Is(err, userrepo.ErrNotFound) || (err == nil && main.Role != workflow.RoleMainBaker.String()) {
		return nil, errorbank.NotFound("team not found", errorbank.WithCode("not_found"))
	}
	if err != nil {
		return nil, s.fail(span, err)
	}

	members, err := s.users.TeamMembers(ctx, mainID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return members, nil
}

// Notifications returns the latest notifications addressed to actor.
func (s *Service) Notifications(ctx context.Context, actor workflow.Actor, limit int) ([]*entity.Notification, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Notifications", trace.WithAttributes(attribute.Int64("user.id", actor.UserID)))
	defer span.End()

	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	notes, err := s.inbox.ListByUser(ctx, actor.UserID, limit)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return notes, nil
}

func forbiddenTeam() error {
	return errorbank.Forbidden("you cannot view this team", errorbank.WithCode("unauthorized"))
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	s.logger.Error("user query failed", zap.Error(err))
	return errorbank.Internal("failed to load users", errorbank.WithCause(err))
}
