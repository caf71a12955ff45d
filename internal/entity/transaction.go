package entity

import "time"

// EventType is the economic effect a transaction had on the queried account.
type EventType string

const (
	EventTransfer       EventType = "TRANSFER"
	EventSwap           EventType = "SWAP"
	EventNativeTransfer EventType = "NATIVE_TRANSFER"
	EventUnknown        EventType = "UNKNOWN"
)

// TokenBalance is the balance of one SPL token account at a fixed point
// (before or after a transaction). AccountIndex is the account's position in
// the transaction's account list and is the pairing key between the pre and
// post sides.
type TokenBalance struct {
	AccountIndex uint16
	Mint         string
	Owner        string
	RawAmount    uint64
	Decimals     uint8
}

// TransactionRecord is a normalized confirmed transaction. Immutable once
// fetched. A zero BlockTime means the chain did not report one; consumers
// substitute the current time.
type TransactionRecord struct {
	Signature         string
	BlockTime         time.Time
	Fee               uint64 // lamports, paid by the first account key
	AccountKeys       []string
	PreBalances       []uint64 // lamports, indexed like AccountKeys
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// TokenAmount is one priced asset flow of a classified event.
type TokenAmount struct {
	Mint     string  `json:"mint"`
	Symbol   string  `json:"symbol"`
	Amount   float64 `json:"amount"`
	ValueUSD float64 `json:"fiatValue"`
}

// ClassifiedEvent is the typed, valued view of one transaction from the
// queried account's perspective. ProfitUSD is meaningful for SWAP only and
// is signed (negative means a loss).
type ClassifiedEvent struct {
	Signature string        `json:"signature"`
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	InTokens  []TokenAmount `json:"inTokens"`
	OutTokens []TokenAmount `json:"outTokens"`
	FeeSOL    float64       `json:"fee"`
	ProfitUSD float64       `json:"profit"`
}
