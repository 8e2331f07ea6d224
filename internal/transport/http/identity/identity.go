package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/config"
	"github.com/bakery-bliss/bakery/internal/entity"
	"github.com/bakery-bliss/bakery/internal/presentation/http/response"
	userrepo "github.com/bakery-bliss/bakery/internal/repository/user"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

const actorKey = "bakery.actor"

// Users loads the account behind an identity header.
type Users interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// Module provides the identity middleware to Fx.
var Module = fx.Provide(New)

// Params defines dependencies for constructing Middleware.
type Params struct {
	fx.In

	Users  *userrepo.Repository
	Config config.Config
	Logger *zap.Logger
}

// Middleware resolves the gateway identity header into a workflow.Actor.
// The role always comes from the users table, never from the request.
type Middleware struct {
	users  Users
	header string
	logger *zap.Logger
}

// New wires the middleware.
func New(p Params) *Middleware {
	return NewWithUsers(p.Users, p.Config.Auth.UserHeader, p.Logger)
}

// NewWithUsers builds a middleware over any user lookup.
func NewWithUsers(users Users, header string, logger *zap.Logger) *Middleware {
	if header == "" {
		header = "X-User-ID"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{users: users, header: header, logger: logger}
}

// Require rejects requests without a known user.
func (m *Middleware) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := m.resolve(c)
			if err != nil {
				return response.New(c).WithError(err).Build()
			}
			c.Set(actorKey, actor)
			trace.SpanFromContext(c.Request().Context()).SetAttributes(
				attribute.Int64("enduser.id", actor.UserID),
				attribute.String("enduser.role", actor.Role.String()),
			)
			return next(c)
		}
	}
}

func (m *Middleware) resolve(c echo.Context) (workflow.Actor, error) {
	raw := strings.TrimSpace(c.Request().Header.Get(m.header))
	if raw == "" {
		return workflow.Actor{}, unauthenticated("missing " + m.header + " header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return workflow.Actor{}, unauthenticated("invalid " + m.header + " header")
	}

	user, err := m.users.GetByID(c.Request().Context(), id)
	if errors.Is(err, userrepo.ErrNotFound) {
		return workflow.Actor{}, unauthenticated("unknown user")
	}
	if err != nil {
		m.logger.Error("identity lookup failed", zap.Int64("user_id", id), zap.Error(err))
		return workflow.Actor{}, errorbank.Internal("failed to resolve identity", errorbank.WithCause(err))
	}

	role, err := workflow.ParseRole(user.Role)
	if err != nil {
		m.logger.Warn("user has an unknown role", zap.Int64("user_id", id), zap.String("role", user.Role))
		return workflow.Actor{}, errorbank.Forbidden("account role is not recognised", errorbank.WithCode("unauthorized"))
	}
	return workflow.Actor{UserID: user.ID, Role: role}, nil
}

// ActorFrom returns the actor stored by Require.
func ActorFrom(c echo.Context) (workflow.Actor, bool) {
	actor, ok := c.Get(actorKey).(workflow.Actor)
	return actor, ok
}

// MustActor returns the actor or an unauthenticated error for routes outside Require.
func MustActor(c echo.Context) (workflow.Actor, error) {
	actor, ok := ActorFrom(c)
	if !ok {
		return workflow.Actor{}, unauthenticated("authentication required")
	}
	return actor, nil
}

func unauthenticated(msg string) error {
	return errorbank.Unauthorized(msg, errorbank.WithCode("unauthenticated"))
}
