package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/config"
)

// fallbackRoutingKey is used for payloads that are not event envelopes.
const fallbackRoutingKey = "order.event"

// rabbitClient implements Client over a topic exchange bound to one durable queue.
// Messages are routed by their envelope type, so the queue binding pattern applies.
type rabbitClient struct {
	conn   *amqp.Connection
	pubCh  *amqp.Channel
	mu     sync.Mutex
	cfg    config.RabbitMQ
	logger *zap.Logger
}

func newRabbitClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	client := &rabbitClient{
		cfg:    cfg.Messaging.RabbitMQ,
		logger: logger,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.connect()
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing rabbitmq client")
			return client.close()
		},
	})

	return client, nil
}

func (r *rabbitClient) connect() error {
	conn, err := amqp.Dial(r.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := r.declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	r.conn = conn
	r.pubCh = ch
	go r.logReturns(ch.NotifyReturn(make(chan amqp.Return, 1)))
	r.logger.Info("rabbitmq connected", zap.String("exchange", r.cfg.Exchange), zap.String("queue", r.cfg.Queue))
	return nil
}

func (r *rabbitClient) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(r.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", r.cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(r.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", r.cfg.Queue, err)
	}
	if err := ch.QueueBind(r.cfg.Queue, r.cfg.RoutingKey, r.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", r.cfg.Queue, err)
	}
	return nil
}

// logReturns reports mandatory publishes no queue binding accepted.
func (r *rabbitClient) logReturns(returns <-chan amqp.Return) {
	for ret := range returns {
		r.logger.Error("rabbitmq message unroutable",
			zap.String("exchange", ret.Exchange),
			zap.String("routing_key", ret.RoutingKey),
			zap.String("reply", ret.ReplyText),
			zap.String("message_id", ret.MessageId),
		)
	}
}

// routingKeyFor derives the routing key from the envelope type of value.
func routingKeyFor(value []byte) string {
	env, err := DecodeEnvelope(value)
	if err != nil {
		return fallbackRoutingKey
	}
	return env.Type
}

func (r *rabbitClient) close() error {
	var closeErr error
	if r.pubCh != nil {
		closeErr = errors.Join(closeErr, r.pubCh.Close())
	}
	if r.conn != nil {
		closeErr = errors.Join(closeErr, r.conn.Close())
	}
	return closeErr
}

func (r *rabbitClient) Publish(ctx context.Context, key []byte, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubCh == nil {
		return errors.New("rabbitmq client not connected")
	}
	return r.pubCh.PublishWithContext(ctx, r.cfg.Exchange, routingKeyFor(value), true, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    string(key),
		Timestamp:    time.Now().UTC(),
		Body:         value,
	})
}

// Consume opens a dedicated channel; a failed handler nacks with requeue.
func (r *rabbitClient) Consume(ctx context.Context, handler Handler) error {
	if r.conn == nil {
		return errors.New("rabbitmq client not connected")
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(r.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, r.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", r.cfg.Queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			msg := Message{
				Topic: r.Topic(),
				Key:   []byte(d.MessageId),
				Value: d.Body,
				Time:  d.Timestamp,
			}
			if len(d.Headers) > 0 {
				msg.Headers = make(map[string]string, len(d.Headers))
				for k, v := range d.Headers {
					msg.Headers[k] = fmt.Sprint(v)
				}
			}

			if err := handler(ctx, msg); err != nil {
				r.logger.Error("message handler failed", zap.Error(err), zap.String("message_id", d.MessageId))
				if nackErr := d.Nack(false, true); nackErr != nil {
					r.logger.Warn("nack failed", zap.Error(nackErr))
				}
				continue
			}
			if err := d.Ack(false); err != nil {
				r.logger.Warn("ack failed", zap.Error(err))
			}
		}
	}
}

func (r *rabbitClient) Topic() string { return r.cfg.Exchange }
