package entity

// TaxSummary is a pure reduction over the classified events of one query.
// TotalFeesSOL is kept in native display units, never fiat; everything else
// is USD. The liability figure is an estimate, not tax advice.
type TaxSummary struct {
	TotalIncomeUSD  float64 `json:"totalIncome"`
	CapitalGainsUSD float64 `json:"capitalGains"`
	TotalFeesSOL    float64 `json:"totalFees"`
	TaxLiabilityUSD float64 `json:"taxLiability"`
}

// WithRegionalRate layers an additional region-specific flat rate on top of
// the base liability, applied to income plus gains.
func (s TaxSummary) WithRegionalRate(rate float64) TaxSummary {
	s.TaxLiabilityUSD += rate * (s.TotalIncomeUSD + s.CapitalGainsUSD)
	return s
}

// AccountReport is the full result of one account query.
type AccountReport struct {
	Address       string            `json:"address"`
	BalanceSOL    float64           `json:"balance"`
	BalanceUSD    float64           `json:"balanceUSD"`
	TokenAccounts []TokenHolding    `json:"tokenAccounts"`
	Transactions  []ClassifiedEvent `json:"transactions"`
	TaxSummary    TaxSummary        `json:"taxSummary"`
}
