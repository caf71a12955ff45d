package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"soltax/internal/chain"
	"soltax/internal/entity"
	"soltax/internal/retry"
)

// TransactionFetcher retrieves the recent transaction history of an account.
type TransactionFetcher interface {
	// FetchRecent lists up to limit recent signatures and fetches the full
	// record for each, most recent first. Listing failure (after retries)
	// fails the call; a single record that cannot be fetched is logged and
	// skipped.
	FetchRecent(ctx context.Context, address string, limit int) ([]entity.TransactionRecord, error)
}

// transactionFetcherImpl implements the TransactionFetcher interface.
type transactionFetcherImpl struct {
	logger        *zap.Logger
	chainClient   chain.Client
	retryPolicy   retry.Policy
	maxConcurrent int
}

// NewTransactionFetcher creates a new instance of TransactionFetcher.
func NewTransactionFetcher(logger *zap.Logger, chainClient chain.Client, retryPolicy retry.Policy, maxConcurrent int) TransactionFetcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &transactionFetcherImpl{
		logger:        logger.Named("TransactionFetcher"),
		chainClient:   chainClient,
		retryPolicy:   retryPolicy,
		maxConcurrent: maxConcurrent,
	}
}

// FetchRecent implements the TransactionFetcher interface.
func (f *transactionFetcherImpl) FetchRecent(ctx context.Context, address string, limit int) ([]entity.TransactionRecord, error) {
	var sigs []chain.SignatureInfo
	err := retry.Do(ctx, f.logger, f.retryPolicy, "getSignaturesForAddress", func(ctx context.Context) error {
		var err error
		sigs, err = f.chainClient.GetSignaturesForAddress(ctx, address, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 {
		return []entity.TransactionRecord{}, nil
	}

	// Slots are positional so the listing order survives the fan-out.
	fetched := make([]*entity.TransactionRecord, len(sigs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(f.maxConcurrent)
	for i, sig := range sigs {
		i, sig := i, sig
		eg.Go(func() error {
			var record *entity.TransactionRecord
			err := retry.Do(egCtx, f.logger, f.retryPolicy, "getTransaction", func(ctx context.Context) error {
				var err error
				record, err = f.chainClient.GetTransaction(ctx, sig.Signature)
				return err
			})
			if err != nil {
				// Partial data loss: this record is excluded, the batch survives.
				f.logger.Warn("Dropping transaction record after failed fetch",
					zap.String("signature", sig.Signature),
					zap.Error(err))
				return nil
			}
			if record == nil {
				f.logger.Debug("Transaction not found, skipping", zap.String("signature", sig.Signature))
				return nil
			}
			if record.BlockTime.IsZero() && !sig.BlockTime.IsZero() {
				record.BlockTime = sig.BlockTime
			}
			fetched[i] = record
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	records := make([]entity.TransactionRecord, 0, len(fetched))
	for _, record := range fetched {
		if record != nil {
			records = append(records, *record)
		}
	}
	f.logger.Debug("Fetched transaction records",
		zap.String("address", address),
		zap.Int("requested", len(sigs)),
		zap.Int("fetched", len(records)))
	return records, nil
}
