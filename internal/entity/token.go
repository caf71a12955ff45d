package entity

// Native asset constants. The wrapped SOL mint doubles as the price lookup
// identifier for native SOL.
const (
	NativeMint     = "So11111111111111111111111111111111111111112"
	NativeSymbol   = "SOL"
	NativeDecimals = uint8(9)
)

// TokenMetadata describes one fungible asset. Resolved once per mint and
// cached for the process lifetime.
type TokenMetadata struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// TokenListEntry is one row of the bulk token list as served by the registry.
type TokenListEntry struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// RawTokenAccount is a token account as read from the chain, before metadata
// resolution: just the mint and the raw (undivided) amount.
type RawTokenAccount struct {
	Mint      string
	RawAmount uint64
}

// TokenHolding is one non-zero asset balance of the queried account, valued
// in USD. Recomputed per query, never persisted.
type TokenHolding struct {
	Mint      string  `json:"mint"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	RawAmount uint64  `json:"rawAmount"`
	Decimals  uint8   `json:"decimals"`
	UIAmount  float64 `json:"uiAmount"`
	ValueUSD  float64 `json:"valueUSD"`
}
