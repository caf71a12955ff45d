package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	tokenmetadata "github.com/gagliardetto/metaplex-go/clients/token-metadata"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"soltax/internal/config"
	"soltax/internal/entity"
	"soltax/pkg/metrics"
)

// MetaplexTokenMetadataProgramID is the program ID of the Metaplex Token
// Metadata program.
const MetaplexTokenMetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

var metaplexProgramID = solana.MustPublicKeyFromBase58(MetaplexTokenMetadataProgramID)

// solanaClientImpl implements Client on top of the solana-go RPC client. All
// calls share one rate limiter and carry a per-request timeout.
type solanaClientImpl struct {
	rpcClient      *rpc.Client
	endpoint       string
	limiter        *rate.Limiter
	requestTimeout time.Duration
	logger         *zap.Logger
}

// NewSolanaClient creates a rate-limited RPC client for the configured
// endpoint.
func NewSolanaClient(cfg *config.Config, logger *zap.Logger) Client {
	return &solanaClientImpl{
		rpcClient:      rpc.New(cfg.RPC.Endpoint),
		endpoint:       cfg.RPC.Endpoint,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RPC.RateLimit), cfg.RPC.BurstLimit),
		requestTimeout: time.Duration(cfg.RPC.RequestTimeoutMs) * time.Millisecond,
		logger:         logger.Named("SolanaClient"),
	}
}

func (c *solanaClientImpl) Endpoint() string {
	return c.endpoint
}

// acquire waits for a limiter slot and derives the per-call timeout context.
func (c *solanaClientImpl) acquire(ctx context.Context, method string) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter wait for %s: %w", method, err)
	}
	metrics.RPCRequestsTotal.WithLabelValues(method).Inc()
	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	return callCtx, cancel, nil
}

func (c *solanaClientImpl) GetBalance(ctx context.Context, address string) (uint64, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, entity.NewInvalidInput("malformed account address", err)
	}

	callCtx, cancel, err := c.acquire(ctx, "getBalance")
	if err != nil {
		return 0, err
	}
	defer cancel()

	out, err := c.rpcClient.GetBalance(callCtx, pubkey, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("getBalance for %s: %w", address, err)
	}
	return out.Value, nil
}

func (c *solanaClientImpl) GetTokenAccounts(ctx context.Context, address string) ([]entity.RawTokenAccount, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, entity.NewInvalidInput("malformed account address", err)
	}

	callCtx, cancel, err := c.acquire(ctx, "getTokenAccountsByOwner")
	if err != nil {
		return nil, err
	}
	defer cancel()

	tokenProgram := solana.TokenProgramID
	out, err := c.rpcClient.GetTokenAccountsByOwner(
		callCtx,
		owner,
		&rpc.GetTokenAccountsConfig{ProgramId: &tokenProgram},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64},
	)
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner for %s: %w", address, err)
	}

	accounts := make([]entity.RawTokenAccount, 0, len(out.Value))
	for _, acc := range out.Value {
		var ta token.Account
		data := acc.Account.Data.GetBinary()
		if err := bin.NewBinDecoder(data).Decode(&ta); err != nil {
			c.logger.Warn("Skipping undecodable token account",
				zap.String("account", acc.Pubkey.String()),
				zap.Error(err))
			continue
		}
		accounts = append(accounts, entity.RawTokenAccount{
			Mint:      ta.Mint.String(),
			RawAmount: ta.Amount,
		})
	}
	return accounts, nil
}

func (c *solanaClientImpl) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, entity.NewInvalidInput("malformed account address", err)
	}

	callCtx, cancel, err := c.acquire(ctx, "getSignaturesForAddress")
	if err != nil {
		return nil, err
	}
	defer cancel()

	out, err := c.rpcClient.GetSignaturesForAddressWithOpts(callCtx, pubkey, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress for %s: %w", address, err)
	}

	infos := make([]SignatureInfo, 0, len(out))
	for _, sig := range out {
		info := SignatureInfo{Signature: sig.Signature.String()}
		if sig.BlockTime != nil {
			info.BlockTime = sig.BlockTime.Time()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (c *solanaClientImpl) GetTransaction(ctx context.Context, signature string) (*entity.TransactionRecord, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, entity.NewInvalidInput("malformed transaction signature", err)
	}

	callCtx, cancel, err := c.acquire(ctx, "getTransaction")
	if err != nil {
		return nil, err
	}
	defer cancel()

	maxTxVersion := uint64(0)
	out, err := c.rpcClient.GetTransaction(callCtx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &maxTxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getTransaction %s: %w", signature, err)
	}
	if out == nil || out.Meta == nil {
		return nil, nil
	}

	parsed, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction %s: %w", signature, err)
	}

	record := &entity.TransactionRecord{
		Signature:    signature,
		Fee:          out.Meta.Fee,
		PreBalances:  out.Meta.PreBalances,
		PostBalances: out.Meta.PostBalances,
	}
	if out.BlockTime != nil {
		record.BlockTime = out.BlockTime.Time()
	}

	// Static keys first, then address-table lookups in writable/readonly
	// order, matching the balance array indexing.
	keys := make([]string, 0, len(parsed.Message.AccountKeys))
	for _, key := range parsed.Message.AccountKeys {
		keys = append(keys, key.String())
	}
	for _, key := range out.Meta.LoadedAddresses.Writable {
		keys = append(keys, key.String())
	}
	for _, key := range out.Meta.LoadedAddresses.ReadOnly {
		keys = append(keys, key.String())
	}
	record.AccountKeys = keys

	record.PreTokenBalances = convertTokenBalances(out.Meta.PreTokenBalances)
	record.PostTokenBalances = convertTokenBalances(out.Meta.PostTokenBalances)
	return record, nil
}

func convertTokenBalances(balances []rpc.TokenBalance) []entity.TokenBalance {
	converted := make([]entity.TokenBalance, 0, len(balances))
	for _, tb := range balances {
		if tb.UiTokenAmount == nil {
			continue
		}
		entry := entity.TokenBalance{
			AccountIndex: tb.AccountIndex,
			Mint:         tb.Mint.String(),
			Decimals:     tb.UiTokenAmount.Decimals,
		}
		if tb.Owner != nil {
			entry.Owner = tb.Owner.String()
		}
		if raw, err := parseRawAmount(tb.UiTokenAmount.Amount); err == nil {
			entry.RawAmount = raw
		}
		converted = append(converted, entry)
	}
	return converted
}

func parseRawAmount(amount string) (uint64, error) {
	var raw uint64
	_, err := fmt.Sscanf(amount, "%d", &raw)
	return raw, err
}

func (c *solanaClientImpl) GetTokenDecimals(ctx context.Context, mint string) (uint8, error) {
	pubkey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return 0, entity.NewInvalidInput("malformed mint address", err)
	}

	callCtx, cancel, err := c.acquire(ctx, "getTokenSupply")
	if err != nil {
		return 0, err
	}
	defer cancel()

	out, err := c.rpcClient.GetTokenSupply(callCtx, pubkey, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("getTokenSupply for %s: %w", mint, err)
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("getTokenSupply for %s: empty result", mint)
	}
	return out.Value.Decimals, nil
}

func (c *solanaClientImpl) GetTokenMetadata(ctx context.Context, mint string) (*entity.TokenMetadata, error) {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, entity.NewInvalidInput("malformed mint address", err)
	}

	pda, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("metadata"),
			metaplexProgramID.Bytes(),
			mintKey.Bytes(),
		},
		metaplexProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive metadata PDA for %s: %w", mint, err)
	}

	callCtx, cancel, err := c.acquire(ctx, "getAccountInfo")
	if err != nil {
		return nil, err
	}
	defer cancel()

	info, err := c.rpcClient.GetAccountInfo(callCtx, pda)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getAccountInfo for metadata %s: %w", pda, err)
	}
	if info == nil || info.Value == nil || !info.Value.Owner.Equals(metaplexProgramID) {
		return nil, nil
	}

	var meta tokenmetadata.Metadata
	if err := bin.NewBorshDecoder(info.Value.Data.GetBinary()).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", mint, err)
	}

	// On-chain name/symbol fields are zero-padded to fixed width.
	return &entity.TokenMetadata{
		Mint:   mint,
		Symbol: strings.TrimRight(meta.Data.Symbol, "\x00"),
		Name:   strings.TrimRight(meta.Data.Name, "\x00"),
	}, nil
}
