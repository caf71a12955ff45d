package service

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"soltax/internal/chain"
	"soltax/internal/config"
	"soltax/internal/entity"
	"soltax/internal/pkg/utils"
	"soltax/internal/retry"
	"soltax/pkg/metrics"
)

// ReportService is the pipeline orchestrator: one call runs the full
// validate → balance → holdings → fetch → classify → aggregate sequence for
// an account.
type ReportService interface {
	// GetAccountReport returns a complete report or a typed error, never a
	// partial report. Invalid input fails before any network call.
	GetAccountReport(ctx context.Context, address string) (*entity.AccountReport, error)
}

// reportServiceImpl implements the ReportService interface.
type reportServiceImpl struct {
	logger      *zap.Logger
	chainClient chain.Client
	fetcher     TransactionFetcher
	classifier  Classifier
	priceSvc    PriceService
	metaSvc     MetadataService
	cfg         *config.Config
	retryPolicy retry.Policy
}

// NewReportService creates a new instance of ReportService.
func NewReportService(
	logger *zap.Logger,
	chainClient chain.Client,
	fetcher TransactionFetcher,
	classifier Classifier,
	priceSvc PriceService,
	metaSvc MetadataService,
	cfg *config.Config,
	retryPolicy retry.Policy,
) ReportService {
	return &reportServiceImpl{
		logger:      logger.Named("ReportService"),
		chainClient: chainClient,
		fetcher:     fetcher,
		classifier:  classifier,
		priceSvc:    priceSvc,
		metaSvc:     metaSvc,
		cfg:         cfg,
		retryPolicy: retryPolicy,
	}
}

// GetAccountReport implements the ReportService interface.
func (s *reportServiceImpl) GetAccountReport(ctx context.Context, address string) (*entity.AccountReport, error) {
	start := time.Now()
	defer func() {
		metrics.ReportDuration.Observe(time.Since(start).Seconds())
	}()

	if err := validateAddress(address); err != nil {
		s.logger.Info("Rejecting invalid account address", zap.String("address", address), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Building account report", zap.String("address", address))

	balanceLamports, err := s.fetchBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	balanceSOL := utils.LamportsToSOL(balanceLamports)

	solPrice, _ := s.priceSvc.GetPrice(ctx, entity.NativeMint, time.Time{})

	holdings, err := s.fetchHoldings(ctx, address)
	if err != nil {
		return nil, err
	}

	records, err := s.fetcher.FetchRecent(ctx, address, s.cfg.Fetcher.TransactionLimit)
	if err != nil {
		return nil, err
	}

	events := make([]entity.ClassifiedEvent, 0, len(records))
	for _, record := range records {
		events = append(events, s.classifier.Classify(ctx, record, address))
	}

	summary := Aggregate(events)

	s.logger.Info("Account report complete",
		zap.String("address", address),
		zap.Float64("balanceSOL", balanceSOL),
		zap.Int("tokenAccounts", len(holdings)),
		zap.Int("transactions", len(events)))

	return &entity.AccountReport{
		Address:       address,
		BalanceSOL:    balanceSOL,
		BalanceUSD:    balanceSOL * solPrice,
		TokenAccounts: holdings,
		Transactions:  events,
		TaxSummary:    summary,
	}, nil
}

// validateAddress requires a base58 string decoding to an on-curve public
// key. No network calls are made for invalid input.
func validateAddress(address string) error {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return entity.NewInvalidInput("account address is not valid base58", err)
	}
	if !pubkey.IsOnCurve() {
		return entity.NewInvalidInput("account address is not an on-curve public key", nil)
	}
	return nil
}

func (s *reportServiceImpl) fetchBalance(ctx context.Context, address string) (uint64, error) {
	var balance uint64
	err := retry.Do(ctx, s.logger, s.retryPolicy, "getBalance", func(ctx context.Context) error {
		var err error
		balance, err = s.chainClient.GetBalance(ctx, address)
		return err
	})
	return balance, err
}

// fetchHoldings lists the account's non-zero token balances, resolving
// metadata and pricing each.
func (s *reportServiceImpl) fetchHoldings(ctx context.Context, address string) ([]entity.TokenHolding, error) {
	var accounts []entity.RawTokenAccount
	err := retry.Do(ctx, s.logger, s.retryPolicy, "getTokenAccountsByOwner", func(ctx context.Context) error {
		var err error
		accounts, err = s.chainClient.GetTokenAccounts(ctx, address)
		return err
	})
	if err != nil {
		return nil, err
	}

	mints := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		if acc.RawAmount > 0 {
			mints = append(mints, acc.Mint)
		}
	}
	// One batched source call instead of a lookup per held asset.
	s.priceSvc.Prime(ctx, mints)

	holdings := make([]entity.TokenHolding, 0, len(accounts))
	for _, acc := range accounts {
		if acc.RawAmount == 0 {
			continue
		}
		meta := s.metaSvc.Resolve(ctx, acc.Mint)
		uiAmount := utils.RawToUI(acc.RawAmount, meta.Decimals)
		price, _ := s.priceSvc.GetPrice(ctx, acc.Mint, time.Time{})
		holdings = append(holdings, entity.TokenHolding{
			Mint:      acc.Mint,
			Symbol:    meta.Symbol,
			Name:      meta.Name,
			RawAmount: acc.RawAmount,
			Decimals:  meta.Decimals,
			UIAmount:  uiAmount,
			ValueUSD:  uiAmount * price,
		})
	}
	return holdings, nil
}
