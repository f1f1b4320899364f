package scheduler

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"pricing-service/internal/service"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Config holds the scheduler settings.
type Config struct {
	IntervalSeconds int
}

// Evaluator runs one expiration discount pass for a tenant.
type Evaluator interface {
	EvaluateExpirationDiscounts(ctx context.Context, userID int) (*service.BatchResult, error)
}

// TenantLister returns the tenants that own priced products.
type TenantLister interface {
	ListUserIDs(ctx context.Context) ([]int, error)
}

// Run evaluates expiration discounts for every tenant on a fixed interval
// and blocks until ctx is cancelled. The first pass runs immediately.
func Run(ctx context.Context, evaluator Evaluator, tenants TenantLister, cfg Config) {
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if cfg.IntervalSeconds <= 0 {
		interval = 15 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Msgf("Expiration pricing scheduler started, interval %v", interval)

	evaluateAll(ctx, evaluator, tenants)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Expiration pricing scheduler stopping")
			return
		case <-ticker.C:
			evaluateAll(ctx, evaluator, tenants)
		}
	}
}

func evaluateAll(ctx context.Context, evaluator Evaluator, tenants TenantLister) {
	userIDs, err := tenants.ListUserIDs(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing tenants for expiration pricing")
		return
	}

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := evaluator.EvaluateExpirationDiscounts(ctx, userID)
		if err != nil {
			logger.Error().Err(err).Msgf("Error evaluating expiration discounts for user %d", userID)
			continue
		}
		if result.UpdatedCount > 0 || len(result.Failed) > 0 {
			logger.Info().Msgf("Expiration pricing for user %d: %d updated, %d failed", userID, result.UpdatedCount, len(result.Failed))
		}
	}
}
