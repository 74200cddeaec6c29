package seqid

import (
	"log/slog"
)

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// safeRatio returns numerator/denominator or 0 when denominator is zero
func safeRatio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0.0
	}
	return float64(numerator) / float64(denominator)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
