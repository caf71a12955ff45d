package chain

import (
	"context"
	"time"

	"soltax/internal/entity"
)

// SignatureInfo is one entry of a signature listing: the transaction id plus
// the approximate chain time, most recent first.
type SignatureInfo struct {
	Signature string
	BlockTime time.Time
}

// Client is the read-only chain surface the pipeline consumes. Implementations
// must be safe for concurrent use.
type Client interface {
	// Endpoint returns the RPC endpoint URL this client talks to.
	Endpoint() string

	// GetBalance returns the native balance of the account in lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetTokenAccounts lists the SPL token accounts owned by the address.
	GetTokenAccounts(ctx context.Context, address string) ([]entity.RawTokenAccount, error)

	// GetSignaturesForAddress lists up to limit recent transaction signatures
	// touching the address, most recent first.
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error)

	// GetTransaction fetches one confirmed transaction as a normalized record.
	// A missing transaction returns (nil, nil).
	GetTransaction(ctx context.Context, signature string) (*entity.TransactionRecord, error)

	// GetTokenDecimals reads the mint's decimal precision from its supply info.
	GetTokenDecimals(ctx context.Context, mint string) (uint8, error)

	// GetTokenMetadata reads the on-chain Metaplex metadata for the mint.
	// A mint without a metadata account returns (nil, nil).
	GetTokenMetadata(ctx context.Context, mint string) (*entity.TokenMetadata, error)
}
