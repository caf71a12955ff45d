package service

import (
	"context"
	"sync"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"soltax/internal/chain"
	"soltax/internal/client"
	"soltax/internal/entity"
)

// syntheticSymbolLen is how many characters of the mint survive into the
// fallback symbol.
const syntheticSymbolLen = 4

// fallbackDecimals is the conservative precision assumed when neither the
// token list nor the chain can tell us (native precision on this chain).
const fallbackDecimals = entity.NativeDecimals

// MetadataService resolves a mint to symbol/name/decimals.
type MetadataService interface {
	// Resolve never fails: resolution falls through the bulk token list, the
	// on-chain metadata account, and finally a synthetic entry built from the
	// mint itself. Results are cached for the process lifetime.
	Resolve(ctx context.Context, mint string) entity.TokenMetadata
}

// metadataServiceImpl implements the MetadataService interface.
type metadataServiceImpl struct {
	logger      *zap.Logger
	chainClient chain.Client
	listClient  client.TokenListClient
	metaCache   *cache.Cache

	listOnce  sync.Once
	listIndex map[string]entity.TokenMetadata
}

// NewMetadataService creates a new instance of MetadataService.
func NewMetadataService(logger *zap.Logger, chainClient chain.Client, listClient client.TokenListClient) MetadataService {
	return &metadataServiceImpl{
		logger:      logger.Named("MetadataService"),
		chainClient: chainClient,
		listClient:  listClient,
		metaCache:   cache.New(cache.NoExpiration, 0),
		listIndex:   map[string]entity.TokenMetadata{},
	}
}

// Resolve implements the MetadataService interface.
func (s *metadataServiceImpl) Resolve(ctx context.Context, mint string) entity.TokenMetadata {
	if mint == entity.NativeMint {
		return entity.TokenMetadata{
			Mint:     mint,
			Symbol:   entity.NativeSymbol,
			Name:     "Solana",
			Decimals: entity.NativeDecimals,
		}
	}

	if cached, found := s.metaCache.Get(mint); found {
		if meta, ok := cached.(entity.TokenMetadata); ok {
			return meta
		}
	}

	meta := s.lookup(ctx, mint)
	s.metaCache.Set(mint, meta, cache.NoExpiration)
	return meta
}

func (s *metadataServiceImpl) lookup(ctx context.Context, mint string) entity.TokenMetadata {
	s.loadTokenListOnce(ctx)
	if meta, ok := s.listIndex[mint]; ok {
		return meta
	}

	if meta := s.lookupOnChain(ctx, mint); meta != nil {
		return *meta
	}

	s.logger.Debug("Falling back to synthetic metadata", zap.String("mint", mint))
	return syntheticMetadata(mint)
}

// loadTokenListOnce fetches and indexes the bulk token list exactly once per
// process. A failed load is non-fatal; the index stays empty.
func (s *metadataServiceImpl) loadTokenListOnce(ctx context.Context) {
	s.listOnce.Do(func() {
		entries, err := s.listClient.FetchTokenList(ctx)
		if err != nil {
			s.logger.Warn("Failed to load bulk token list, proceeding without it", zap.Error(err))
			return
		}
		index := make(map[string]entity.TokenMetadata, len(entries))
		for _, e := range entries {
			index[e.Address] = entity.TokenMetadata{
				Mint:     e.Address,
				Symbol:   e.Symbol,
				Name:     e.Name,
				Decimals: e.Decimals,
			}
		}
		s.listIndex = index
		s.logger.Info("Indexed bulk token list", zap.Int("tokenCount", len(index)))
	})
}

func (s *metadataServiceImpl) lookupOnChain(ctx context.Context, mint string) *entity.TokenMetadata {
	meta, err := s.chainClient.GetTokenMetadata(ctx, mint)
	if err != nil {
		s.logger.Debug("On-chain metadata lookup failed", zap.String("mint", mint), zap.Error(err))
		return nil
	}
	if meta == nil || meta.Symbol == "" {
		return nil
	}

	decimals, err := s.chainClient.GetTokenDecimals(ctx, mint)
	if err != nil {
		s.logger.Debug("Token supply lookup failed, using fallback decimals",
			zap.String("mint", mint),
			zap.Error(err))
		decimals = fallbackDecimals
	}
	meta.Decimals = decimals
	return meta
}

func syntheticMetadata(mint string) entity.TokenMetadata {
	symbol := mint
	if len(symbol) > syntheticSymbolLen {
		symbol = symbol[:syntheticSymbolLen] + "…"
	}
	return entity.TokenMetadata{
		Mint:     mint,
		Symbol:   symbol,
		Name:     "Unknown Token (" + symbol + ")",
		Decimals: fallbackDecimals,
	}
}
