package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bakery-bliss/bakery/internal/config"
	ordersvc "github.com/bakery-bliss/bakery/internal/service/order"
)

const (
	defaultSweepSchedule = "@every 5m"
	sweepTimeout         = time.Minute
)

// Module schedules background jobs on the worker's lifecycle.
var Module = fx.Options(
	fx.Provide(NewDeadlineSweepJob),
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, job *DeadlineSweepJob) {
		if !cfg.Jobs.Enabled {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error { return job.Start() },
			OnStop:  job.Stop,
		})
	}),
)

// Sweeper flags orders that missed their deadline.
type Sweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

// DeadlineSweepJob periodically publishes order.overdue for late orders.
type DeadlineSweepJob struct {
	sweeper  Sweeper
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
	now      func() time.Time
}

// NewDeadlineSweepJob wires the sweep against the order service.
func NewDeadlineSweepJob(svc *ordersvc.Service, cfg config.Config, logger *zap.Logger) *DeadlineSweepJob {
	return newDeadlineSweepJob(svc, cfg.Jobs.DeadlineSweepSchedule, logger)
}

func newDeadlineSweepJob(sweeper Sweeper, schedule string, logger *zap.Logger) *DeadlineSweepJob {
	if schedule == "" {
		schedule = defaultSweepSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "deadline_sweep_job"))
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	return &DeadlineSweepJob{
		sweeper:  sweeper,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the sweep and starts the scheduler.
func (j *DeadlineSweepJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("deadline sweep job started", zap.String("schedule", j.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (j *DeadlineSweepJob) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		j.logger.Info("deadline sweep job stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *DeadlineSweepJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := j.sweeper.SweepOverdue(ctx, j.now())
	if err != nil {
		j.logger.Error("deadline sweep failed", zap.Error(err))
		return
	}
	j.logger.Debug("deadline sweep finished", zap.Int("overdue", n))
}
