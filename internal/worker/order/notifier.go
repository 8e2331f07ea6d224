package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/cache"
	"github.com/bakery-bliss/bakery/internal/entity"
	"github.com/bakery-bliss/bakery/internal/messaging"
	notificationrepo "github.com/bakery-bliss/bakery/internal/repository/notification"
	ordersvc "github.com/bakery-bliss/bakery/internal/service/order"
	"github.com/bakery-bliss/bakery/internal/worker"
)

var workerTracer = otel.Tracer("github.com/bakery-bliss/bakery/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		NewNotifier,
		fx.Annotate(
			NewRegistration,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Inbox stores notifications for users.
type Inbox interface {
	Create(ctx context.Context, notes ...*entity.Notification) error
}

// Params defines dependencies for constructing Notifier.
type Params struct {
	fx.In

	Notifications *notificationrepo.Repository
	Cache         cache.Store
	Logger        *zap.Logger
}

// Notifier turns order events into user notifications and drops stale cache entries.
type Notifier struct {
	inbox  Inbox
	cache  cache.Store
	logger *zap.Logger
}

// NewNotifier wires a Notifier.
func NewNotifier(p Params) *Notifier {
	return newNotifier(p.Notifications, p.Cache, p.Logger)
}

func newNotifier(inbox Inbox, store cache.Store, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{inbox: inbox, cache: store, logger: logger}
}

// NewRegistration binds the notifier to the order events topic.
func NewRegistration(n *Notifier, client messaging.Client) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   client.Topic(),
		Handler: n.Handle,
	}
}

// Handle processes one order event envelope. Undecodable messages are dropped
// so a poison message cannot block the topic.
func (n *Notifier) Handle(ctx context.Context, msg messaging.Message) error {
	ctx, span := workerTracer.Start(ctx, "worker.orders.notify", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
	))
	defer span.End()

	env, err := messaging.DecodeEnvelope(msg.Value)
	if err != nil {
		n.logger.Error("failed to decode order event envelope", zap.ByteString("key", msg.Key), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		return nil
	}
	span.SetAttributes(attribute.String("event.type", env.Type), attribute.String("event.id", env.ID))

	var event ordersvc.OrderEvent
	if err := json.Unmarshal(env.Payload, &event); err != nil {
		n.logger.Error("failed to decode order event", zap.String("type", env.Type), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		return nil
	}

	if n.cache != nil {
		if err := n.cache.Delete(ctx, cache.OrderKey(event.OrderID)); err != nil {
			n.logger.Warn("order cache invalidation failed", zap.Int64("order_id", event.OrderID), zap.Error(err))
		}
	}

	notes := notificationsFor(env.Type, event, env.OccurredAt)
	if len(notes) == 0 {
		n.logger.Debug("order event needs no notification", zap.String("type", env.Type))
		return nil
	}
	if err := n.inbox.Create(ctx, notes...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store notifications")
		return fmt.Errorf("store notifications for order %d: %w", event.OrderID, err)
	}

	n.logger.Info("order event processed",
		zap.String("type", env.Type),
		zap.Int64("order_id", event.OrderID),
		zap.Int("notifications", len(notes)),
	)
	return nil
}

// notificationsFor decides who hears about an event.
func notificationsFor(eventType string, e ordersvc.OrderEvent, at time.Time) []*entity.Notification {
	note := func(userID int64, msg string) *entity.Notification {
		return &entity.Notification{UserID: userID, OrderID: e.OrderID, Kind: eventType, Message: msg, CreatedAt: at}
	}

	switch eventType {
	case ordersvc.EventOrderCreated:
		out := []*entity.Notification{note(e.CustomerID, fmt.Sprintf("Order %s has been received.", e.OrderNumber))}
		if e.MainBakerID != nil {
			out = append(out, note(*e.MainBakerID, fmt.Sprintf("New order %s is waiting for your team.", e.OrderNumber)))
		}
		return out
	case ordersvc.EventStatusChanged:
		msg := fmt.Sprintf("Order %s is now %s.", e.OrderNumber, e.NewStatus)
		if e.Feedback != "" {
			msg = fmt.Sprintf("Order %s is now %s: %s", e.OrderNumber, e.NewStatus, e.Feedback)
		}
		return []*entity.Notification{note(e.CustomerID, msg)}
	case ordersvc.EventAssigned:
		if e.JuniorBakerID == nil {
			return nil
		}
		return []*entity.Notification{note(*e.JuniorBakerID, fmt.Sprintf("You have been assigned order %s.", e.OrderNumber))}
	case ordersvc.EventOverdue:
		msg := fmt.Sprintf("Order %s has passed its deadline.", e.OrderNumber)
		out := []*entity.Notification{note(e.CustomerID, msg)}
		switch {
		case e.JuniorBakerID != nil:
			out = append(out, note(*e.JuniorBakerID, msg))
		case e.MainBakerID != nil:
			out = append(out, note(*e.MainBakerID, msg))
		}
		return out
	default:
		return nil
	}
}
