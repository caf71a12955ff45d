package service

import (
	"context"
	"sync"
	"time"

	"soltax/internal/chain"
	"soltax/internal/entity"
)

// mockChainClient is a hand-rolled chain.Client with per-method call counters
// and pluggable behavior.
type mockChainClient struct {
	mu sync.Mutex

	balanceFn       func(ctx context.Context, address string) (uint64, error)
	tokenAccountsFn func(ctx context.Context, address string) ([]entity.RawTokenAccount, error)
	signaturesFn    func(ctx context.Context, address string, limit int) ([]chain.SignatureInfo, error)
	transactionFn   func(ctx context.Context, signature string) (*entity.TransactionRecord, error)
	decimalsFn      func(ctx context.Context, mint string) (uint8, error)
	metadataFn      func(ctx context.Context, mint string) (*entity.TokenMetadata, error)

	balanceCalls       int
	tokenAccountsCalls int
	signaturesCalls    int
	transactionCalls   int
	decimalsCalls      int
	metadataCalls      int
}

func (m *mockChainClient) Endpoint() string { return "https://rpc.test" }

func (m *mockChainClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	m.mu.Lock()
	m.balanceCalls++
	m.mu.Unlock()
	if m.balanceFn == nil {
		return 0, nil
	}
	return m.balanceFn(ctx, address)
}

func (m *mockChainClient) GetTokenAccounts(ctx context.Context, address string) ([]entity.RawTokenAccount, error) {
	m.mu.Lock()
	m.tokenAccountsCalls++
	m.mu.Unlock()
	if m.tokenAccountsFn == nil {
		return nil, nil
	}
	return m.tokenAccountsFn(ctx, address)
}

func (m *mockChainClient) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]chain.SignatureInfo, error) {
	m.mu.Lock()
	m.signaturesCalls++
	m.mu.Unlock()
	if m.signaturesFn == nil {
		return nil, nil
	}
	return m.signaturesFn(ctx, address, limit)
}

func (m *mockChainClient) GetTransaction(ctx context.Context, signature string) (*entity.TransactionRecord, error) {
	m.mu.Lock()
	m.transactionCalls++
	m.mu.Unlock()
	if m.transactionFn == nil {
		return nil, nil
	}
	return m.transactionFn(ctx, signature)
}

func (m *mockChainClient) GetTokenDecimals(ctx context.Context, mint string) (uint8, error) {
	m.mu.Lock()
	m.decimalsCalls++
	m.mu.Unlock()
	if m.decimalsFn == nil {
		return entity.NativeDecimals, nil
	}
	return m.decimalsFn(ctx, mint)
}

func (m *mockChainClient) GetTokenMetadata(ctx context.Context, mint string) (*entity.TokenMetadata, error) {
	m.mu.Lock()
	m.metadataCalls++
	m.mu.Unlock()
	if m.metadataFn == nil {
		return nil, nil
	}
	return m.metadataFn(ctx, mint)
}

func (m *mockChainClient) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceCalls + m.tokenAccountsCalls + m.signaturesCalls +
		m.transactionCalls + m.decimalsCalls + m.metadataCalls
}

// stubPriceService returns fixed per-mint prices; unknown mints are unresolved.
type stubPriceService struct {
	prices map[string]float64
}

func (s *stubPriceService) GetPrice(ctx context.Context, mint string, asOf time.Time) (float64, bool) {
	price, ok := s.prices[mint]
	return price, ok
}

func (s *stubPriceService) Prime(ctx context.Context, mints []string) {}

// stubMetadataService resolves from a fixed map, falling back to a synthetic
// entry like the real implementation.
type stubMetadataService struct {
	metas map[string]entity.TokenMetadata
}

func (s *stubMetadataService) Resolve(ctx context.Context, mint string) entity.TokenMetadata {
	if meta, ok := s.metas[mint]; ok {
		return meta
	}
	if mint == entity.NativeMint {
		return entity.TokenMetadata{Mint: mint, Symbol: entity.NativeSymbol, Name: "Solana", Decimals: entity.NativeDecimals}
	}
	return syntheticMetadata(mint)
}

// countingPriceClient serves fixed prices and counts upstream fetches.
type countingPriceClient struct {
	mu     sync.Mutex
	prices map[string]float64
	err    error
	calls  int
}

func (c *countingPriceClient) GetPrices(ctx context.Context, mints []string) (map[string]float64, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := map[string]float64{}
	for _, mint := range mints {
		if price, ok := c.prices[mint]; ok {
			out[mint] = price
		}
	}
	return out, nil
}

func (c *countingPriceClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// stubTokenListClient serves a fixed list or an error, counting calls.
type stubTokenListClient struct {
	entries []entity.TokenListEntry
	err     error
	calls   int
}

func (c *stubTokenListClient) FetchTokenList(ctx context.Context) ([]entity.TokenListEntry, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.entries, nil
}
