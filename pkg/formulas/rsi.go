package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// DefaultRSIPeriod is the standard Wilder RSI look-back.
const DefaultRSIPeriod = 14

// CalculateRSI calculates the Relative Strength Index
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss, Wilder-smoothed over period
//
// Returns nil if len(closes) <= period or period < 2. A series with no declines has an
// average loss of zero and yields 100.
func CalculateRSI(closes []float64, period int) *float64 {
	if period < 2 || len(closes) <= period {
		return nil
	}

	if !hasDecline(closes) {
		result := 100.0
		return &result
	}

	rsi := talib.Rsi(closes, period)
	if len(rsi) == 0 || math.IsNaN(rsi[len(rsi)-1]) {
		return nil
	}

	result := rsi[len(rsi)-1]
	return &result
}

// Wilder smoothing never brings a positive average loss back to zero, so the
// average loss is zero exactly when no close is lower than its predecessor.
func hasDecline(closes []float64) bool {
	for i := 1; i < len(closes); i++ {
		if closes[i] < closes[i-1] {
			return true
		}
	}
	return false
}
