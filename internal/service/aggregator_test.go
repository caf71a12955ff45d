package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"soltax/internal/entity"
)

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate(nil)

	assert.Zero(t, summary.TotalIncomeUSD)
	assert.Zero(t, summary.CapitalGainsUSD)
	assert.Zero(t, summary.TotalFeesSOL)
	assert.Zero(t, summary.TaxLiabilityUSD)
}

func TestAggregate(t *testing.T) {
	now := time.Now()
	events := []entity.ClassifiedEvent{
		{
			Type:      entity.EventTransfer,
			Timestamp: now,
			InTokens:  []entity.TokenAmount{{Mint: mintUSDC, Amount: 100, ValueUSD: 100}},
			FeeSOL:    0.000005,
		},
		{
			Type:      entity.EventNativeTransfer,
			Timestamp: now,
			InTokens:  []entity.TokenAmount{{Mint: entity.NativeMint, Amount: 2, ValueUSD: 300}},
		},
		{
			Type:      entity.EventSwap,
			Timestamp: now,
			InTokens:  []entity.TokenAmount{{Mint: mintBONK, ValueUSD: 120}},
			OutTokens: []entity.TokenAmount{{Mint: mintUSDC, ValueUSD: 100}},
			ProfitUSD: 20,
			FeeSOL:    0.000005,
		},
		{
			Type:   entity.EventUnknown,
			FeeSOL: 0.000005,
		},
	}

	summary := Aggregate(events)

	assert.InDelta(t, 400.0, summary.TotalIncomeUSD, 1e-9)
	assert.InDelta(t, 20.0, summary.CapitalGainsUSD, 1e-9)
	assert.InDelta(t, 0.000015, summary.TotalFeesSOL, 1e-12)
	assert.InDelta(t, 400.0*IncomeTaxRate+20.0*CapitalGainsTaxRate, summary.TaxLiabilityUSD, 1e-9)
}

func TestAggregateOutflowsAreNotIncome(t *testing.T) {
	events := []entity.ClassifiedEvent{
		{
			Type:      entity.EventTransfer,
			OutTokens: []entity.TokenAmount{{Mint: mintUSDC, Amount: 50, ValueUSD: 50}},
		},
	}

	summary := Aggregate(events)

	assert.Zero(t, summary.TotalIncomeUSD)
	assert.Zero(t, summary.TaxLiabilityUSD)
}

func TestAggregateSwapLossesNetAgainstGains(t *testing.T) {
	events := []entity.ClassifiedEvent{
		{Type: entity.EventSwap, ProfitUSD: 50},
		{Type: entity.EventSwap, ProfitUSD: -30},
	}

	summary := Aggregate(events)

	assert.InDelta(t, 20.0, summary.CapitalGainsUSD, 1e-9)
	assert.InDelta(t, 4.0, summary.TaxLiabilityUSD, 1e-9)
}

func TestAggregateOrderIndependent(t *testing.T) {
	events := []entity.ClassifiedEvent{
		{Type: entity.EventTransfer, InTokens: []entity.TokenAmount{{ValueUSD: 10}}, FeeSOL: 0.01},
		{Type: entity.EventSwap, ProfitUSD: -5, FeeSOL: 0.02},
		{Type: entity.EventNativeTransfer, InTokens: []entity.TokenAmount{{ValueUSD: 7}}},
		{Type: entity.EventUnknown, FeeSOL: 0.005},
	}
	reversed := []entity.ClassifiedEvent{events[3], events[2], events[1], events[0]}

	assert.Equal(t, Aggregate(events), Aggregate(reversed))
}

func TestWithRegionalRate(t *testing.T) {
	summary := entity.TaxSummary{
		TotalIncomeUSD:  100,
		CapitalGainsUSD: 50,
		TotalFeesSOL:    0.001,
		TaxLiabilityUSD: 47,
	}

	adjusted := summary.WithRegionalRate(0.1)

	// Base liability plus the regional rate over income and gains.
	assert.InDelta(t, 47.0+0.1*150.0, adjusted.TaxLiabilityUSD, 1e-9)
	// Source figures are untouched.
	assert.Equal(t, summary.TotalIncomeUSD, adjusted.TotalIncomeUSD)
	assert.Equal(t, summary.CapitalGainsUSD, adjusted.CapitalGainsUSD)
	assert.Equal(t, summary.TotalFeesSOL, adjusted.TotalFeesSOL)
	assert.InDelta(t, 47.0, summary.TaxLiabilityUSD, 1e-9)
}
