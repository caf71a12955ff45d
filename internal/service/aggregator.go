package service

import "soltax/internal/entity"

// Flat estimation rates. Policy constants, not derived data; the resulting
// figure is an estimate, not tax advice.
const (
	IncomeTaxRate       = 0.37
	CapitalGainsTaxRate = 0.20
)

// Aggregate folds classified events into a tax summary.
//
// Policy: TRANSFER and NATIVE_TRANSFER inflows count as income at their fiat
// value. A swap contributes only its signed profit to capital gains, so
// losses net against gains. Fees accumulate in SOL display units. The fold is
// associative and commutative: event order does not affect the result.
func Aggregate(events []entity.ClassifiedEvent) entity.TaxSummary {
	var summary entity.TaxSummary
	for _, event := range events {
		summary.TotalFeesSOL += event.FeeSOL

		switch event.Type {
		case entity.EventTransfer, entity.EventNativeTransfer:
			for _, leg := range event.InTokens {
				summary.TotalIncomeUSD += leg.ValueUSD
			}
		case entity.EventSwap:
			summary.CapitalGainsUSD += event.ProfitUSD
		}
	}

	summary.TaxLiabilityUSD = summary.TotalIncomeUSD*IncomeTaxRate + summary.CapitalGainsUSD*CapitalGainsTaxRate
	return summary
}
