package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetPriceCaching(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup within TTL hits the cache", func(t *testing.T) {
		priceClient := &countingPriceClient{prices: map[string]float64{mintUSDC: 1.0}}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, time.Minute, 50)

		price, ok := svc.GetPrice(ctx, mintUSDC, time.Now())
		require.True(t, ok)
		assert.InDelta(t, 1.0, price, 1e-9)

		price, ok = svc.GetPrice(ctx, mintUSDC, time.Now())
		require.True(t, ok)
		assert.InDelta(t, 1.0, price, 1e-9)

		assert.Equal(t, 1, priceClient.callCount())
	})

	t.Run("expired entry triggers exactly one refetch", func(t *testing.T) {
		priceClient := &countingPriceClient{prices: map[string]float64{mintUSDC: 1.0}}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, 30*time.Millisecond, 50)

		_, ok := svc.GetPrice(ctx, mintUSDC, time.Now())
		require.True(t, ok)

		time.Sleep(60 * time.Millisecond)

		_, ok = svc.GetPrice(ctx, mintUSDC, time.Now())
		require.True(t, ok)
		assert.Equal(t, 2, priceClient.callCount())
	})

	t.Run("distinct mints are cached independently", func(t *testing.T) {
		priceClient := &countingPriceClient{prices: map[string]float64{mintUSDC: 1.0, mintBONK: 0.00002}}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, time.Minute, 50)

		_, ok := svc.GetPrice(ctx, mintUSDC, time.Now())
		require.True(t, ok)
		price, ok := svc.GetPrice(ctx, mintBONK, time.Now())
		require.True(t, ok)
		assert.InDelta(t, 0.00002, price, 1e-12)

		assert.Equal(t, 2, priceClient.callCount())
	})
}

func TestGetPriceUnresolved(t *testing.T) {
	ctx := context.Background()

	t.Run("source failure yields zero and false", func(t *testing.T) {
		priceClient := &countingPriceClient{err: errors.New("price API down")}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, time.Minute, 50)

		price, ok := svc.GetPrice(ctx, mintUSDC, time.Now())
		assert.False(t, ok)
		assert.Zero(t, price)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		priceClient := &countingPriceClient{err: errors.New("price API down")}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, time.Minute, 50)

		svc.GetPrice(ctx, mintUSDC, time.Now())
		svc.GetPrice(ctx, mintUSDC, time.Now())
		assert.Equal(t, 2, priceClient.callCount())
	})

	t.Run("mint missing from the source yields zero and false", func(t *testing.T) {
		priceClient := &countingPriceClient{prices: map[string]float64{}}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, time.Minute, 50)

		price, ok := svc.GetPrice(ctx, mintBONK, time.Now())
		assert.False(t, ok)
		assert.Zero(t, price)
	})
}

func TestPrime(t *testing.T) {
	ctx := context.Background()

	t.Run("primed mints are served without further source calls", func(t *testing.T) {
		priceClient := &countingPriceClient{prices: map[string]float64{mintUSDC: 1.0, mintBONK: 0.00002}}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, time.Minute, 50)

		svc.Prime(ctx, []string{mintUSDC, mintBONK, mintUSDC})
		assert.Equal(t, 1, priceClient.callCount())

		price, ok := svc.GetPrice(ctx, mintUSDC, time.Now())
		require.True(t, ok)
		assert.InDelta(t, 1.0, price, 1e-9)
		price, ok = svc.GetPrice(ctx, mintBONK, time.Now())
		require.True(t, ok)
		assert.InDelta(t, 0.00002, price, 1e-12)

		assert.Equal(t, 1, priceClient.callCount())
	})

	t.Run("splits into batches of the configured size", func(t *testing.T) {
		priceClient := &countingPriceClient{prices: map[string]float64{mintUSDC: 1.0, mintBONK: 0.00002}}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, time.Minute, 1)

		svc.Prime(ctx, []string{mintUSDC, mintBONK})
		assert.Equal(t, 2, priceClient.callCount())
	})

	t.Run("priming failure is absorbed", func(t *testing.T) {
		priceClient := &countingPriceClient{err: errors.New("price API down")}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, time.Minute, 50)

		svc.Prime(ctx, []string{mintUSDC})

		_, ok := svc.GetPrice(ctx, mintUSDC, time.Now())
		assert.False(t, ok)
	})

	t.Run("already cached mints are skipped", func(t *testing.T) {
		priceClient := &countingPriceClient{prices: map[string]float64{mintUSDC: 1.0}}
		svc := newPriceServiceWithTTL(zap.NewNop(), priceClient, time.Minute, 50)

		_, ok := svc.GetPrice(ctx, mintUSDC, time.Now())
		require.True(t, ok)

		svc.Prime(ctx, []string{mintUSDC})
		assert.Equal(t, 1, priceClient.callCount())
	})
}
