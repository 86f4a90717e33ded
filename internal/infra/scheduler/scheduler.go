// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is implemented by service.CurrencyService.
type Refresher interface {
	RefreshRates(ctx context.Context) (*domain.ExchangeRates, error)
}

// RateRefresher refreshes the cached exchange rates on a cron schedule.
// A failed refresh is logged and retried on the next tick.
type RateRefresher struct {
	cron      *cron.Cron
	refresher Refresher
	timeout   time.Duration
	logger    *zap.Logger
}

// NewRateRefresher parses spec (standard 5-field cron or a descriptor such as
// "@every 24h") and registers the refresh job. timeout bounds each run.
func NewRateRefresher(spec string, refresher Refresher, timeout time.Duration, logger *zap.Logger) (*RateRefresher, error) {
	cl := cronLogger{logger.Sugar()}
	rr := &RateRefresher{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		refresher: refresher,
		timeout:   timeout,
		logger:    logger,
	}
	if _, err := rr.cron.AddFunc(spec, func() { _ = rr.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid rate refresh schedule %q: %w", spec, err)
	}
	return rr, nil
}

// Start warms the cache once in the background and starts the schedule.
func (r *RateRefresher) Start() {
	go func() { _ = r.RunOnce(context.Background()) }()
	r.cron.Start()
	r.logger.Info("rate refresher started", zap.Time("next_run", r.next()))
}

// Stop halts the schedule and waits for a running job, or for ctx.
func (r *RateRefresher) Stop(ctx context.Context) error {
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single refresh.
func (r *RateRefresher) RunOnce(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	rates, err := r.refresher.RefreshRates(ctx)
	if err != nil {
		r.logger.Warn("scheduled rate refresh failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	r.logger.Info("scheduled rate refresh done",
		zap.Int("currencies", len(rates.Rates)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (r *RateRefresher) next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
