package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"soltax/internal/client"
	"soltax/internal/config"
	"soltax/internal/pkg/utils"
	"soltax/pkg/metrics"
)

// PriceService resolves USD unit prices for mints, backed by a TTL cache.
type PriceService interface {
	// GetPrice returns the USD unit price for the mint. The asOf hint is
	// accepted for callers that price historical flows; the current source
	// has no historical endpoint, so prices are current regardless of asOf
	// and cache keys are scoped per mint. A false result means the price is
	// unresolved and the zero value must be treated as "unpriced", not
	// ground truth.
	GetPrice(ctx context.Context, mint string, asOf time.Time) (float64, bool)

	// Prime batch-fetches prices for the mints not already cached, so that
	// subsequent GetPrice calls are cache hits. Source failures are logged
	// and absorbed; priming is best effort.
	Prime(ctx context.Context, mints []string)
}

// priceServiceImpl implements the PriceService interface.
type priceServiceImpl struct {
	logger       *zap.Logger
	priceClient  client.PriceClient
	pricesCache  *cache.Cache
	group        singleflight.Group
	maxBatchSize int
}

// NewPriceService creates a new instance of PriceService.
func NewPriceService(logger *zap.Logger, cfg *config.Config, priceClient client.PriceClient) PriceService {
	ttl := time.Duration(cfg.PriceSvc.CacheTTLMinutes) * time.Minute
	return newPriceServiceWithTTL(logger, priceClient, ttl, cfg.PriceSvc.MaxMintsPerBatch)
}

func newPriceServiceWithTTL(logger *zap.Logger, priceClient client.PriceClient, ttl time.Duration, maxBatchSize int) PriceService {
	return &priceServiceImpl{
		logger:       logger.Named("PriceService"),
		priceClient:  priceClient,
		pricesCache:  cache.New(ttl, 10*time.Minute),
		maxBatchSize: maxBatchSize,
	}
}

// GetPrice implements the PriceService interface. Concurrent lookups for the
// same mint are coalesced into a single source call.
func (s *priceServiceImpl) GetPrice(ctx context.Context, mint string, asOf time.Time) (float64, bool) {
	if cached, found := s.pricesCache.Get(mint); found {
		metrics.PriceCacheHits.Inc()
		if price, ok := cached.(float64); ok {
			return price, true
		}
		s.logger.Warn("Price found in cache but not a float64", zap.String("mint", mint), zap.Any("value", cached))
	}
	metrics.PriceCacheMisses.Inc()

	result, err, _ := s.group.Do(mint, func() (interface{}, error) {
		prices, err := s.priceClient.GetPrices(ctx, []string{mint})
		if err != nil {
			return nil, err
		}
		price, ok := prices[mint]
		if !ok {
			return nil, nil
		}
		s.pricesCache.Set(mint, price, cache.DefaultExpiration)
		return price, nil
	})
	if err != nil {
		s.logger.Warn("Price unresolved, substituting zero",
			zap.String("mint", mint),
			zap.Time("asOf", asOf),
			zap.Error(err))
		return 0, false
	}
	if result == nil {
		s.logger.Debug("Price source has no price for mint", zap.String("mint", mint))
		return 0, false
	}
	return result.(float64), true
}

// Prime implements the PriceService interface.
func (s *priceServiceImpl) Prime(ctx context.Context, mints []string) {
	uncached := make([]string, 0, len(mints))
	seen := map[string]struct{}{}
	for _, mint := range mints {
		if _, dup := seen[mint]; dup {
			continue
		}
		seen[mint] = struct{}{}
		if _, found := s.pricesCache.Get(mint); !found {
			uncached = append(uncached, mint)
		}
	}
	if len(uncached) == 0 {
		return
	}

	for _, batch := range utils.BatchStrings(uncached, s.maxBatchSize) {
		prices, err := s.priceClient.GetPrices(ctx, batch)
		if err != nil {
			s.logger.Warn("Price priming batch failed",
				zap.Int("batchSize", len(batch)),
				zap.Error(err))
			continue
		}
		for mint, price := range prices {
			s.pricesCache.Set(mint, price, cache.DefaultExpiration)
		}
	}
}
