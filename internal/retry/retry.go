package retry

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"soltax/internal/entity"
	"soltax/pkg/metrics"
)

// Policy configures bounded retry with exponential backoff.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultPolicy is the stock upstream-call policy: 3 attempts, 500ms base
// delay doubling per attempt, capped at 8s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    8 * time.Second,
	}
}

// Do runs fn up to p.MaxAttempts times, sleeping an increasing delay between
// attempts. Invalid-input errors and context cancellation abort immediately
// without retry. When the budget is exhausted the last error is wrapped as
// UpstreamUnavailable.
func Do(ctx context.Context, logger *zap.Logger, p Policy, op string, fn func(context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("Upstream call succeeded after retry",
					zap.String("op", op),
					zap.Int("attempt", attempt))
			}
			return nil
		}
		lastErr = err

		if entity.KindOf(err) == entity.KindInvalidInput {
			return err
		}
		if ctx.Err() != nil {
			return entity.NewUpstreamUnavailable(op+" cancelled", ctx.Err())
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := backoffDelay(p, attempt)
		logger.Warn("Upstream call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", p.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))
		metrics.RPCRetriesTotal.WithLabelValues(op).Inc()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return entity.NewUpstreamUnavailable(op+" cancelled during backoff", ctx.Err())
		}
	}

	logger.Error("Upstream call exhausted retry budget",
		zap.String("op", op),
		zap.Int("attempts", p.MaxAttempts),
		zap.Error(lastErr))
	return entity.NewUpstreamUnavailable(op+" failed after retries", lastErr)
}

func backoffDelay(p Policy, attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}
