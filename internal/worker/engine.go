package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/config"
	"github.com/bakery-bliss/bakery/internal/messaging"
)

const maxBackoff = 30 * time.Second

var engineMeter = otel.Meter("github.com/bakery-bliss/bakery/worker")

// HandlerRegistration binds a topic to a handler. Several handlers may share a topic.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine consumes order events and fans them out to the registered handlers.
type Engine struct {
	client      messaging.Client
	logger      *zap.Logger
	enabled     bool
	concurrency int
	backoff     time.Duration
	handlers    map[string][]messaging.Handler
	processed   metric.Int64Counter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) (*Engine, error) {
	counter, err := engineMeter.Int64Counter("worker.messages",
		metric.WithDescription("Messages handled by the worker engine"),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker counter: %w", err)
	}

	e := &Engine{
		client:      p.Client,
		logger:      p.Logger,
		enabled:     p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		concurrency: p.Config.Messaging.Workers.Concurrency,
		backoff:     p.Config.Messaging.Workers.PollInterval,
		handlers:    make(map[string][]messaging.Handler, len(p.Registrations)),
		processed:   counter,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.concurrency <= 0 {
		e.concurrency = 1
	}
	if e.backoff <= 0 {
		e.backoff = time.Second
	}
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		e.handlers[r.Topic] = append(e.handlers[r.Topic], r.Handler)
	}
	return e, nil
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.Start,
			OnStop:  engine.Stop,
		})
	}),
)

// Start launches the consumer goroutines. It is a no-op when workers are off
// or nothing is registered.
func (e *Engine) Start(context.Context) error {
	if !e.enabled {
		e.logger.Info("worker engine disabled")
		return nil
	}
	if len(e.handlers) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for i := 0; i < e.concurrency; i++ {
		workerID := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}()
	}

	e.logger.Info("worker engine started",
		zap.Int("workers", e.concurrency),
		zap.String("topic", e.client.Topic()),
	)
	return nil
}

// Stop cancels consumption and waits for in-flight messages or ctx.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	}
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := e.backoff
	for {
		if ctx.Err() != nil {
			return
		}

		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.Dispatch(msgCtx, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Error(err), zap.Int("worker", workerID))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// Dispatch runs every handler registered for msg.Topic. All handlers see the
// message even if one fails; the first failure is returned so the broker can
// redeliver.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	handlers, ok := e.handlers[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		e.record(ctx, msg.Topic, "unhandled")
		return nil
	}

	var first error
	for _, h := range handlers {
		if err := e.safeHandle(ctx, h, msg); err != nil {
			e.logger.Error("message handler failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			if first == nil {
				first = err
			}
		}
	}

	outcome := "ok"
	if first != nil {
		outcome = "failed"
	}
	e.record(ctx, msg.Topic, outcome)
	return first
}

func (e *Engine) safeHandle(ctx context.Context, h messaging.Handler, msg messaging.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, msg)
}

func (e *Engine) record(ctx context.Context, topic, outcome string) {
	e.processed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("outcome", outcome),
	))
}
