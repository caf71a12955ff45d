package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"soltax/internal/entity"
	"soltax/internal/pkg/utils"
)

// Classifier turns a transaction record into a typed, valued event from the
// queried account's perspective.
type Classifier interface {
	Classify(ctx context.Context, record entity.TransactionRecord, owner string) entity.ClassifiedEvent
}

// classifierImpl implements the Classifier interface.
type classifierImpl struct {
	logger   *zap.Logger
	priceSvc PriceService
	metaSvc  MetadataService
}

// NewClassifier creates a new instance of Classifier.
func NewClassifier(logger *zap.Logger, priceSvc PriceService, metaSvc MetadataService) Classifier {
	return &classifierImpl{
		logger:   logger.Named("Classifier"),
		priceSvc: priceSvc,
		metaSvc:  metaSvc,
	}
}

// tokenDelta is the signed raw-amount change of one mint across the
// transaction, restricted to token accounts owned by the queried account.
type tokenDelta struct {
	mint     string
	decimals uint8
	raw      int64
}

// Classify implements the Classifier interface.
//
// Decision rule, first match wins: both positive and negative token deltas
// form a SWAP; any token delta alone forms a TRANSFER; a lone native delta
// forms a NATIVE_TRANSFER; otherwise the event is UNKNOWN. The fee is
// attributed only when the queried account is the fee payer (position 0).
func (c *classifierImpl) Classify(ctx context.Context, record entity.TransactionRecord, owner string) entity.ClassifiedEvent {
	timestamp := record.BlockTime
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	event := entity.ClassifiedEvent{
		Signature: record.Signature,
		Timestamp: timestamp,
		Type:      entity.EventUnknown,
		InTokens:  []entity.TokenAmount{},
		OutTokens: []entity.TokenAmount{},
	}

	ownerIndex := -1
	for i, key := range record.AccountKeys {
		if key == owner {
			ownerIndex = i
			break
		}
	}
	feePayer := ownerIndex == 0 && len(record.AccountKeys) > 0
	if feePayer {
		event.FeeSOL = utils.LamportsToSOL(record.Fee)
	}

	deltas := c.tokenDeltas(record, owner)

	var inflows, outflows []tokenDelta
	for _, d := range deltas {
		switch {
		case d.raw > 0:
			inflows = append(inflows, d)
		case d.raw < 0:
			outflows = append(outflows, d)
		}
	}

	nativeDelta := c.nativeDelta(record, ownerIndex, feePayer)

	switch {
	case len(inflows) > 0 && len(outflows) > 0:
		event.Type = entity.EventSwap
	case len(inflows) > 0 || len(outflows) > 0:
		event.Type = entity.EventTransfer
	case nativeDelta != 0:
		event.Type = entity.EventNativeTransfer
		if nativeDelta > 0 {
			inflows = []tokenDelta{{mint: entity.NativeMint, decimals: entity.NativeDecimals, raw: nativeDelta}}
		} else {
			outflows = []tokenDelta{{mint: entity.NativeMint, decimals: entity.NativeDecimals, raw: nativeDelta}}
		}
	default:
		return event
	}

	for _, d := range inflows {
		event.InTokens = append(event.InTokens, c.priceLeg(ctx, d, timestamp))
	}
	for _, d := range outflows {
		event.OutTokens = append(event.OutTokens, c.priceLeg(ctx, d, timestamp))
	}

	if event.Type == entity.EventSwap {
		var inUSD, outUSD float64
		for _, leg := range event.InTokens {
			inUSD += leg.ValueUSD
		}
		for _, leg := range event.OutTokens {
			outUSD += leg.ValueUSD
		}
		event.ProfitUSD = inUSD - outUSD
	}

	return event
}

// tokenDeltas pairs pre and post token balances on their account position,
// treating an entry present on only one side as a delta from or to zero, then
// folds the per-position deltas into one signed delta per mint. Balances not
// owned by the queried account are ignored.
func (c *classifierImpl) tokenDeltas(record entity.TransactionRecord, owner string) []tokenDelta {
	byPosition := map[uint16]*tokenDelta{}
	ensure := func(tb entity.TokenBalance) *tokenDelta {
		d, ok := byPosition[tb.AccountIndex]
		if !ok {
			d = &tokenDelta{mint: tb.Mint, decimals: tb.Decimals}
			byPosition[tb.AccountIndex] = d
		}
		return d
	}

	for _, tb := range record.PreTokenBalances {
		if tb.Owner != owner {
			continue
		}
		ensure(tb).raw -= int64(tb.RawAmount)
	}
	for _, tb := range record.PostTokenBalances {
		if tb.Owner != owner {
			continue
		}
		ensure(tb).raw += int64(tb.RawAmount)
	}

	byMint := map[string]*tokenDelta{}
	for _, d := range byPosition {
		if d.raw == 0 {
			continue
		}
		merged, ok := byMint[d.mint]
		if !ok {
			merged = &tokenDelta{mint: d.mint, decimals: d.decimals}
			byMint[d.mint] = merged
		}
		merged.raw += d.raw
	}

	deltas := make([]tokenDelta, 0, len(byMint))
	for _, d := range byMint {
		if d.raw != 0 {
			deltas = append(deltas, *d)
		}
	}
	// Map iteration order is random; keep event legs deterministic.
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].mint < deltas[j].mint })
	return deltas
}

// nativeDelta is the account's lamport change. For the fee payer the fee is
// added back so that a fee-only transaction does not read as a transfer.
func (c *classifierImpl) nativeDelta(record entity.TransactionRecord, ownerIndex int, feePayer bool) int64 {
	if ownerIndex < 0 || ownerIndex >= len(record.PreBalances) || ownerIndex >= len(record.PostBalances) {
		return 0
	}
	delta := int64(record.PostBalances[ownerIndex]) - int64(record.PreBalances[ownerIndex])
	if feePayer {
		delta += int64(record.Fee)
	}
	return delta
}

// priceLeg converts a signed delta into a priced flow. An unresolved price
// leaves the leg with a zero fiat value.
func (c *classifierImpl) priceLeg(ctx context.Context, d tokenDelta, asOf time.Time) entity.TokenAmount {
	amount := utils.RawDeltaToUI(d.raw, d.decimals)
	if amount < 0 {
		amount = -amount
	}

	meta := c.metaSvc.Resolve(ctx, d.mint)
	price, ok := c.priceSvc.GetPrice(ctx, d.mint, asOf)
	if !ok {
		c.logger.Debug("Leg priced at zero, price unresolved",
			zap.String("mint", d.mint),
			zap.Float64("amount", amount))
	}

	return entity.TokenAmount{
		Mint:     d.mint,
		Symbol:   meta.Symbol,
		Amount:   amount,
		ValueUSD: amount * price,
	}
}
