// Package retry runs remote calls with a fixed, graduated wait plan.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/radiobot/metrics"
	"golang.org/x/exp/slog"
)

// Plan holds the wait before each attempt. The first entry is always zero and
// the length is the attempt budget.
type Plan []time.Duration

// NewPlan builds a plan of fastAttempts waits of fast, followed by slow.
func NewPlan(fast time.Duration, fastAttempts int, slow ...time.Duration) Plan {
	plan := Plan{0}
	for i := 0; i < fastAttempts; i++ {
		plan = append(plan, fast)
	}
	return append(plan, slow...)
}

// DefaultPlan retries every five seconds ten times, then backs off to one,
// five and ten minutes.
var DefaultPlan = NewPlan(5*time.Second, 10, time.Minute, 5*time.Minute, 10*time.Minute)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Executor struct {
	plan   Plan
	sleep  Sleeper
	logger *slog.Logger
}

func NewExecutor(plan Plan, logger *slog.Logger) *Executor {
	if len(plan) == 0 {
		plan = Plan{0}
	}
	return &Executor{
		plan:   plan,
		sleep:  sleep,
		logger: logger,
	}
}

// WithSleeper replaces the wait function, mainly to observe waits in tests.
func (e *Executor) WithSleeper(s Sleeper) *Executor {
	return &Executor{plan: e.plan, sleep: s, logger: e.logger}
}

func (e *Executor) Attempts() int {
	return len(e.plan)
}

// Do calls op until it succeeds, fails permanently or the plan runs out. Errors
// for which isPermanent returns true are returned as is, without waiting. After
// the last attempt the last error is returned as is.
func Do[T any](ctx context.Context, e *Executor, description string, op func(context.Context) (T, error), isPermanent func(error) bool) (T, error) {
	var zero T
	var lastErr error
	total := len(e.plan)

	for i, wait := range e.plan {
		attempt := i + 1
		if attempt > 1 && wait > 0 {
			e.logger.Info("retrying",
				slog.String("operation", description),
				slog.Duration("wait", wait),
				slog.Int("attempt", attempt),
				slog.Int("attempts", total),
			)
			metrics.CatalogRetriesTotal.WithLabelValues(description).Inc()
			if err := e.sleep(ctx, wait); err != nil {
				return zero, fmt.Errorf("%s abandoned after %d attempts: %w", description, attempt-1, errors.Join(err, lastErr))
			}
		}

		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if isPermanent != nil && isPermanent(err) {
			return zero, err
		}

		lastErr = err
		if attempt == total {
			break
		}
		e.logger.Warn("attempt failed",
			slog.String("operation", description),
			slog.Int("attempt", attempt),
			slog.Int("attempts", total),
			slog.String("error", err.Error()),
		)
	}

	return zero, lastErr
}
