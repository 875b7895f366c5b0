package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const jobTimeout = 10 * time.Minute

// Jobs exposes the periodic sweeps as argument-less callables for a scheduler.
type Jobs struct {
	orders     OrderService
	recurrence *RecurrenceEngine
	logger     *zap.Logger
	timeout    time.Duration
}

func NewJobs(orders OrderService, recurrence *RecurrenceEngine, logger *zap.Logger) *Jobs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Jobs{orders: orders, recurrence: recurrence, logger: logger, timeout: jobTimeout}
}

func (j *Jobs) LockOrdersJob() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.orders.LockDueOrders(ctx)
	if err != nil {
		j.logger.Error("lock sweep failed", zap.Error(err))
		return
	}
	j.logger.Info("lock sweep finished", zap.Int("locked", n), zap.Duration("took", time.Since(start)))
}

func (j *Jobs) GenerateRecurringOrdersJob() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if j.recurrence.Mode() != ModeTemplateInstances {
		j.logger.Debug("recurring generation skipped", zap.String("mode", string(j.recurrence.Mode())))
		return
	}
	start := time.Now()
	n, err := j.recurrence.GenerateDueInstances(ctx)
	if err != nil {
		j.logger.Error("recurring generation failed", zap.Error(err))
		return
	}
	j.logger.Info("recurring generation finished", zap.Int("created", n), zap.Duration("took", time.Since(start)))
}
