package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bakery-bliss/bakery/internal/cache"
	"github.com/bakery-bliss/bakery/internal/commission"
	"github.com/bakery-bliss/bakery/internal/config"
	"github.com/bakery-bliss/bakery/internal/entity"
	"github.com/bakery-bliss/bakery/internal/messaging"
	repo "github.com/bakery-bliss/bakery/internal/repository/order"
	productrepo "github.com/bakery-bliss/bakery/internal/repository/product"
	userrepo "github.com/bakery-bliss/bakery/internal/repository/user"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	overdueBatch    = 100
)

var (
	serviceTracer = otel.Tracer("github.com/bakery-bliss/bakery/service/order")
	serviceMeter  = otel.Meter("github.com/bakery-bliss/bakery/service/order")
)

// Store is the order persistence the service needs.
type Store interface {
	Create(ctx context.Context, order *entity.Order, lines []repo.NewLine, shipping *entity.ShippingInfo) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	GetByNumber(ctx context.Context, number string) (*entity.Order, error)
	List(ctx context.Context, filter repo.ListFilter) ([]*entity.Order, int, error)
	ApplyChange(ctx context.Context, change repo.Change) error
	History(ctx context.Context, orderID int64) ([]*entity.OrderStatusHistory, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*entity.Order, error)
	MarkOverdueNotified(ctx context.Context, ids []int64, at time.Time) error
}

// ProductLookup resolves catalog products at checkout.
type ProductLookup interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]*entity.Product, error)
}

// TeamDirectory answers baker team membership questions.
type TeamDirectory interface {
	IsTeamMember(ctx context.Context, mainID, juniorID int64) (bool, error)
}

// Service encapsulates business logic around orders.
type Service struct {
	store       Store
	products    ProductLookup
	teams       TeamDirectory
	calculator  *commission.Calculator
	cache       cache.Store
	cacheTTL    time.Duration
	logger      *zap.Logger
	publisher   messaging.Client
	messaging   messagingConfig
	loads       singleflight.Group
	transitions metric.Int64Counter
	now         func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Products   *productrepo.Repository
	Users      *userrepo.Repository
	Calculator *commission.Calculator
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	return newService(deps{
		store:      p.Repository,
		products:   p.Products,
		teams:      p.Users,
		calculator: p.Calculator,
		cache:      p.Cache,
		cacheTTL:   p.Config.Cache.DefaultTTL,
		logger:     p.Logger,
		publisher:  p.Publisher,
		publish:    p.Config.Messaging.Enabled,
	})
}

type deps struct {
	store      Store
	products   ProductLookup
	teams      TeamDirectory
	calculator *commission.Calculator
	cache      cache.Store
	cacheTTL   time.Duration
	logger     *zap.Logger
	publisher  messaging.Client
	publish    bool
}

func newService(d deps) (*Service, error) {
	counter, err := serviceMeter.Int64Counter("orders.transitions",
		metric.WithDescription("Order status transitions and assignments applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return &Service{
		store:       d.store,
		products:    d.products,
		teams:       d.teams,
		calculator:  d.calculator,
		cache:       d.cache,
		cacheTTL:    d.cacheTTL,
		logger:      d.logger,
		publisher:   d.publisher,
		messaging:   messagingConfig{enabled: d.publish},
		transitions: counter,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Get returns the order identified by ref (numeric id or order number) if actor may see it.
// Orders the actor may not see are reported as not found.
func (s *Service) Get(ctx context.Context, actor workflow.Actor, ref string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.ref", ref)))
	defer span.End()

	order, err := s.lookup(ctx, ref)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if !assignmentOf(order).CanView(actor) {
		return nil, notFound()
	}
	return order, nil
}

// lookup serves reads from the cache, collapsing concurrent misses for the same ref.
func (s *Service) lookup(ctx context.Context, ref string) (*entity.Order, error) {
	id, byID := parseID(ref)
	if byID {
		if order, err := cache.GetJSON[entity.Order](ctx, s.cache, cache.OrderKey(id)); err == nil {
			return order, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	v, err, _ := s.loads.Do(ref, func() (any, error) {
		order, err := s.load(ctx, ref)
		if err != nil {
			return nil, err
		}
		s.fillCache(ctx, order)
		return order, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.Order), nil
}

// load always reads the database; mutations must start from the current version.
func (s *Service) load(ctx context.Context, ref string) (*entity.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errorbank.BadRequest("order reference is required")
	}
	if id, ok := parseID(ref); ok {
		return s.store.GetByID(ctx, id)
	}
	return s.store.GetByNumber(ctx, ref)
}

// ListInput narrows and pages List.
type ListInput struct {
	Status string
	Page   int
	Limit  int
}

// Page is one page of orders.
type Page struct {
	Orders []*entity.Order
	Total  int
	Page   int
	Limit  int
}

// List returns the orders actor is allowed to see.
func (s *Service) List(ctx context.Context, actor workflow.Actor, in ListInput) (Page, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(attribute.String("actor.role", actor.Role.String())))
	defer span.End()

	filter := repo.ListFilter{}
	if in.Status != "" {
		status, err := workflow.ParseStatus(in.Status)
		if err != nil {
			return Page{}, toAppError(err)
		}
		filter.Status = status.String()
	}

	uid := actor.UserID
	switch actor.Role {
	case workflow.RoleCustomer:
		filter.CustomerID = &uid
	case workflow.RoleJuniorBaker:
		filter.JuniorBakerID = &uid
	case workflow.RoleMainBaker:
		filter.MainBakerID = &uid
	case workflow.RoleAdmin, workflow.RoleSystem:
	default:
		return Page{}, toAppError(fmt.Errorf("%w: unknown role %q", workflow.ErrUnauthorized, actor.Role))
	}

	page, limit := normalizePage(in.Page, in.Limit)
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	orders, total, err := s.store.List(ctx, filter)
	if err != nil {
		return Page{}, s.fail(span, err)
	}
	return Page{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

// Transition moves an order to target on behalf of actor.
func (s *Service) Transition(ctx context.Context, actor workflow.Actor, ref, target, feedback string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Transition", trace.WithAttributes(
		attribute.String("order.ref", ref),
		attribute.String("order.target", target),
		attribute.String("actor.role", actor.Role.String()),
	))
	defer span.End()

	order, err := s.load(ctx, ref)
	if err != nil {
		return nil, s.fail(span, err)
	}

	from := workflow.Status(order.Status)
	next, err := workflow.Transition(from, assignmentOf(order), workflow.Request{
		Actor:    actor,
		Target:   workflow.Status(strings.ToLower(strings.TrimSpace(target))),
		Feedback: feedback,
	})
	if err != nil {
		return nil, s.reject(span, err)
	}

	now := s.now()
	updated := *order
	updated.Status = next.String()
	updated.UpdatedAt = now
	feedback = strings.TrimSpace(feedback)
	if workflow.RequiresFeedback(from, next) {
		updated.QualityFeedback = feedback
	}

	change := repo.Change{
		Order:           &updated,
		ExpectedVersion: order.Version,
		History:         s.historyRow(actor, from, next, feedback, now),
	}
	if next.TriggersCommission() {
		earnings, err := s.earningsFor(&updated, now)
		if err != nil {
			return nil, s.fail(span, err)
		}
		change.Earnings = earnings
	}

	if err := s.store.ApplyChange(ctx, change); err != nil {
		return nil, s.fail(span, err)
	}

	s.afterChange(ctx, &updated, from, next)
	event := newOrderEvent(&updated, from.String(), now)
	event.ActorID, event.ActorRole, event.Feedback = actorID(actor), actor.Role.String(), feedback
	s.publish(ctx, EventStatusChanged, &updated, event)

	s.logger.Info("order status changed",
		zap.Int64("id", updated.ID),
		zap.String("from", from.String()),
		zap.String("to", next.String()),
		zap.String("actor_role", actor.Role.String()),
		zap.Int64("actor_id", actor.UserID),
	)
	return &updated, nil
}

// Approve passes a quality check (quality_check -> ready). note is recorded in history.
func (s *Service) Approve(ctx context.Context, actor workflow.Actor, ref, note string) (*entity.Order, error) {
	return s.Transition(ctx, actor, ref, workflow.StatusReady.String(), note)
}

// Reject fails a quality check (quality_check -> processing). feedback is required.
func (s *Service) Reject(ctx context.Context, actor workflow.Actor, ref, feedback string) (*entity.Order, error) {
	return s.Transition(ctx, actor, ref, workflow.StatusProcessing.String(), feedback)
}

// Deliver marks a ready order delivered as the automated fulfillment signal.
func (s *Service) Deliver(ctx context.Context, ref string) (*entity.Order, error) {
	return s.Transition(ctx, workflow.System(), ref, workflow.StatusDelivered.String(), "")
}

// Assign puts a junior baker from the main baker's team on a pending order.
func (s *Service) Assign(ctx context.Context, actor workflow.Actor, ref string, juniorID int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Assign", trace.WithAttributes(
		attribute.String("order.ref", ref),
		attribute.Int64("order.junior_baker_id", juniorID),
	))
	defer span.End()

	if juniorID <= 0 {
		return nil, errorbank.BadRequest("bakerId is required")
	}
	order, err := s.load(ctx, ref)
	if err != nil {
		return nil, s.fail(span, err)
	}

	status := workflow.Status(order.Status)
	asg := assignmentOf(order)
	onTeam := false
	if owner, err := workflow.TeamOwner(asg, actor); err == nil {
		onTeam, err = s.teams.IsTeamMember(ctx, owner, juniorID)
		if err != nil {
			return nil, s.fail(span, err)
		}
	}

	next, err := workflow.Assign(status, asg, workflow.AssignRequest{
		Actor:         actor,
		JuniorBakerID: juniorID,
		OnTeam:        onTeam,
	})
	if err != nil {
		return nil, s.reject(span, err)
	}

	now := s.now()
	updated := *order
	updated.MainBakerID = &next.MainBakerID
	updated.JuniorBakerID = &next.JuniorBakerID
	updated.UpdatedAt = now

	note := fmt.Sprintf("assigned junior baker %d", juniorID)
	err = s.store.ApplyChange(ctx, repo.Change{
		Order:           &updated,
		ExpectedVersion: order.Version,
		History:         s.historyRow(actor, status, status, note, now),
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.afterChange(ctx, &updated, status, status)
	event := newOrderEvent(&updated, status.String(), now)
	event.ActorID, event.ActorRole = actorID(actor), actor.Role.String()
	s.publish(ctx, EventAssigned, &updated, event)

	s.logger.Info("junior baker assigned",
		zap.Int64("id", updated.ID),
		zap.Int64("main_baker_id", next.MainBakerID),
		zap.Int64("junior_baker_id", next.JuniorBakerID),
	)
	return &updated, nil
}

// History returns the status history of an order actor may see.
func (s *Service) History(ctx context.Context, actor workflow.Actor, ref string) ([]*entity.OrderStatusHistory, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.History", trace.WithAttributes(attribute.String("order.ref", ref)))
	defer span.End()

	order, err := s.Get(ctx, actor, ref)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.History(ctx, order.ID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return rows, nil
}

// Actions lists what actor could do next with order: target statuses plus "assign".
func (s *Service) Actions(order *entity.Order, actor workflow.Actor) []string {
	status := workflow.Status(order.Status)
	asg := assignmentOf(order)

	var out []string
	for _, target := range workflow.Available(status, asg, actor) {
		out = append(out, target.String())
	}
	if status == workflow.StatusPending && !asg.HasJuniorBaker() {
		if _, err := workflow.TeamOwner(asg, actor); err == nil {
			out = append(out, "assign")
		}
	}
	return out
}

// SweepOverdue publishes order.overdue once for every order in production past its deadline.
// Published orders are stamped so the next sweep skips them. It returns how many orders were flagged.
func (s *Service) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.SweepOverdue")
	defer span.End()

	orders, err := s.store.ListOverdue(ctx, now, overdueBatch)
	if err != nil {
		return 0, s.fail(span, err)
	}
	flagged := make([]int64, 0, len(orders))
	for _, o := range orders {
		if err := s.publish(ctx, EventOverdue, o, newOrderEvent(o, "", now)); err != nil {
			continue
		}
		flagged = append(flagged, o.ID)
	}
	if err := s.store.MarkOverdueNotified(ctx, flagged, now); err != nil {
		return 0, s.fail(span, err)
	}
	span.SetAttributes(attribute.Int("orders.overdue", len(flagged)))
	if len(flagged) > 0 {
		s.logger.Info("overdue orders flagged", zap.Int("count", len(flagged)))
	}
	return len(flagged), nil
}

func (s *Service) historyRow(actor workflow.Actor, from, to workflow.Status, feedback string, at time.Time) *entity.OrderStatusHistory {
	return &entity.OrderStatusHistory{
		FromStatus: from.String(),
		ToStatus:   to.String(),
		ActorID:    actorID(actor),
		ActorRole:  actor.Role.String(),
		Feedback:   feedback,
		CreatedAt:  at,
	}
}

// earningsFor computes one earning per assigned baker of a delivered order.
func (s *Service) earningsFor(order *entity.Order, at time.Time) ([]*entity.BakerEarning, error) {
	type share struct {
		bakerID *int64
		role    workflow.Role
	}
	var out []*entity.BakerEarning
	for _, sh := range []share{
		{order.MainBakerID, workflow.RoleMainBaker},
		{order.JuniorBakerID, workflow.RoleJuniorBaker},
	} {
		if sh.bakerID == nil || *sh.bakerID == 0 {
			continue
		}
		b, err := s.calculator.Calculate(order.TotalAmount, sh.role, order.IsRush)
		if err != nil {
			return nil, err
		}
		out = append(out, &entity.BakerEarning{
			OrderID:     order.ID,
			BakerID:     *sh.bakerID,
			RoleInOrder: sh.role.String(),
			Percentage:  commission.Percentage(b.Rate),
			BaseAmount:  b.BaseAmount,
			BonusAmount: b.BonusAmount,
			Amount:      b.TotalAmount,
			CreatedAt:   at,
		})
	}
	return out, nil
}

// afterChange overwrites the cached snapshot with the committed order. Miss fills only add,
// so a read that loaded the order before the change cannot replace it afterwards.
func (s *Service) afterChange(ctx context.Context, order *entity.Order, from, to workflow.Status) {
	if s.cache != nil {
		s.storeInCache(ctx, order)
	}
	s.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) {
	if err := cache.SetJSON(ctx, s.cache, cache.OrderKey(order.ID), order, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}
}

func (s *Service) fillCache(ctx context.Context, order *entity.Order) {
	if _, err := cache.AddJSON(ctx, s.cache, cache.OrderKey(order.ID), order, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache fill failed", zap.Int64("id", order.ID), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType string, order *entity.Order, event OrderEvent) error {
	if !s.messaging.enabled || s.publisher == nil {
		return nil
	}
	payload, err := messaging.NewEnvelope(eventType, event, event.At)
	if err != nil {
		s.logger.Error("marshal order event", zap.String("type", eventType), zap.Error(err))
		return err
	}
	if err := s.publisher.Publish(ctx, []byte(order.Number), payload); err != nil {
		s.logger.Error("publish order event", zap.String("type", eventType), zap.Int64("id", order.ID), zap.Error(err))
		return err
	}
	return nil
}

// reject maps an expected domain refusal; the span is not marked as failed.
func (s *Service) reject(span trace.Span, err error) error {
	span.SetAttributes(attribute.String("order.rejected", err.Error()))
	return toAppError(err)
}

func (s *Service) fail(span trace.Span, err error) error {
	appErr := errorbank.From(toAppError(err))
	if appErr.Kind() == errorbank.KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order operation failed")
		s.logger.Error("order operation failed", zap.Error(err))
	}
	return appErr
}

func assignmentOf(o *entity.Order) workflow.Assignment {
	asg := workflow.Assignment{CustomerID: o.CustomerID}
	if o.MainBakerID != nil {
		asg.MainBakerID = *o.MainBakerID
	}
	if o.JuniorBakerID != nil {
		asg.JuniorBakerID = *o.JuniorBakerID
	}
	return asg
}

func actorID(a workflow.Actor) *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

func parseID(ref string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func newOrderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BB-" + strings.ToUpper(id[:8])
}
