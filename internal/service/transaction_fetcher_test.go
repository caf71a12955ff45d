package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soltax/internal/chain"
	"soltax/internal/entity"
	"soltax/internal/retry"
)

func fetcherTestPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2.0, MaxDelay: 5 * time.Millisecond}
}

func TestFetchRecent(t *testing.T) {
	ctx := context.Background()
	blockTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	chainClient := &mockChainClient{
		signaturesFn: func(ctx context.Context, address string, limit int) ([]chain.SignatureInfo, error) {
			return []chain.SignatureInfo{
				{Signature: "sig-1", BlockTime: blockTime},
				{Signature: "sig-2", BlockTime: blockTime.Add(-time.Minute)},
				{Signature: "sig-3", BlockTime: blockTime.Add(-2 * time.Minute)},
			}, nil
		},
		transactionFn: func(ctx context.Context, signature string) (*entity.TransactionRecord, error) {
			return &entity.TransactionRecord{Signature: signature}, nil
		},
	}

	fetcher := NewTransactionFetcher(zap.NewNop(), chainClient, fetcherTestPolicy(), 2)
	records, err := fetcher.FetchRecent(ctx, testOwner, 3)

	require.NoError(t, err)
	require.Len(t, records, 3)
	// Listing order survives the concurrent fan-out.
	assert.Equal(t, "sig-1", records[0].Signature)
	assert.Equal(t, "sig-2", records[1].Signature)
	assert.Equal(t, "sig-3", records[2].Signature)
	// Block time is backfilled from the signature listing.
	assert.Equal(t, blockTime, records[0].BlockTime)
}

func TestFetchRecentEmpty(t *testing.T) {
	chainClient := &mockChainClient{}
	fetcher := NewTransactionFetcher(zap.NewNop(), chainClient, fetcherTestPolicy(), 2)

	records, err := fetcher.FetchRecent(context.Background(), testOwner, 10)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, chainClient.transactionCalls)
}

func TestFetchRecentListingFailure(t *testing.T) {
	chainClient := &mockChainClient{
		signaturesFn: func(ctx context.Context, address string, limit int) ([]chain.SignatureInfo, error) {
			return nil, errors.New("rpc node down")
		},
	}
	fetcher := NewTransactionFetcher(zap.NewNop(), chainClient, fetcherTestPolicy(), 2)

	records, err := fetcher.FetchRecent(context.Background(), testOwner, 10)

	require.Error(t, err)
	assert.Nil(t, records)
	assert.Equal(t, entity.KindUpstreamUnavailable, entity.KindOf(err))
	// The listing is retried up to the attempt budget.
	assert.Equal(t, 2, chainClient.signaturesCalls)
}

func TestFetchRecentDropsFailedRecord(t *testing.T) {
	chainClient := &mockChainClient{
		signaturesFn: func(ctx context.Context, address string, limit int) ([]chain.SignatureInfo, error) {
			return []chain.SignatureInfo{
				{Signature: "sig-ok-1"},
				{Signature: "sig-bad"},
				{Signature: "sig-ok-2"},
			}, nil
		},
		transactionFn: func(ctx context.Context, signature string) (*entity.TransactionRecord, error) {
			if signature == "sig-bad" {
				return nil, errors.New("fetch failed")
			}
			return &entity.TransactionRecord{Signature: signature}, nil
		},
	}
	fetcher := NewTransactionFetcher(zap.NewNop(), chainClient, fetcherTestPolicy(), 1)

	records, err := fetcher.FetchRecent(context.Background(), testOwner, 3)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "sig-ok-1", records[0].Signature)
	assert.Equal(t, "sig-ok-2", records[1].Signature)
}

func TestFetchRecentSkipsMissingTransaction(t *testing.T) {
	chainClient := &mockChainClient{
		signaturesFn: func(ctx context.Context, address string, limit int) ([]chain.SignatureInfo, error) {
			return []chain.SignatureInfo{{Signature: "sig-pruned"}}, nil
		},
		transactionFn: func(ctx context.Context, signature string) (*entity.TransactionRecord, error) {
			return nil, nil
		},
	}
	fetcher := NewTransactionFetcher(zap.NewNop(), chainClient, fetcherTestPolicy(), 2)

	records, err := fetcher.FetchRecent(context.Background(), testOwner, 1)

	require.NoError(t, err)
	assert.Empty(t, records)
	// A missing transaction is not an error, so no retry happens.
	assert.Equal(t, 1, chainClient.transactionCalls)
}
