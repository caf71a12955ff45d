package utils

import (
	"math"
	"os"
)

// GetEnv returns the value of the environment variable or the fallback when
// it is unset or empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// LamportsToSOL converts lamports to SOL display units.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / 1e9
}

// RawToUI divides a raw token amount by 10^decimals.
func RawToUI(raw uint64, decimals uint8) float64 {
	if decimals == 0 {
		return float64(raw)
	}
	return float64(raw) / math.Pow10(int(decimals))
}

// RawDeltaToUI is RawToUI for signed deltas.
func RawDeltaToUI(raw int64, decimals uint8) float64 {
	if decimals == 0 {
		return float64(raw)
	}
	return float64(raw) / math.Pow10(int(decimals))
}

// BatchStrings splits items into batches of at most batchSize. A
// non-positive batchSize yields a single batch.
func BatchStrings(items []string, batchSize int) [][]string {
	if len(items) == 0 {
		return [][]string{}
	}
	if batchSize <= 0 {
		batchSize = len(items)
	}
	var batches [][]string
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}
