// Package formulas holds the pure technical-analysis and calendar math behind the cached statistics.
package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// DefaultEMAPeriod is the period used for daily, weekly and monthly EMAs.
const DefaultEMAPeriod = 5

// CalculateEMA calculates the Exponential Moving Average of closes.
//
//	EMA_today = (Price_today × multiplier) + (EMA_yesterday × (1 - multiplier))
//	where multiplier = 2 / (period + 1)
//
// The seed is the simple average of the first period closes, so exactly
// period closes yield that average. Returns nil if len(closes) < period.
func CalculateEMA(closes []float64, period int) *float64 {
	series := EMASeries(closes, period)
	if len(series) == 0 {
		return nil
	}
	last := series[len(series)-1]
	return &last
}

// EMASeries returns the EMA for every close from index period-1 onwards,
// aligned so series[i] belongs to closes[i+period-1].
func EMASeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}

	if len(closes) == period {
		return []float64{Mean(closes)}
	}

	ema := talib.Ema(closes, period)
	series := ema[period-1:]
	for _, v := range series {
		if math.IsNaN(v) {
			return nil
		}
	}
	return series
}

// WeeksBelowBeforeCrossover reports a bullish crossover on the latest weekly
// close: when the latest close is at or above its EMA and the previous close
// was below, it returns how many consecutive weeks closed below the EMA before
// the cross. Returns nil when the latest week is not a crossover or there is
// not enough history.
func WeeksBelowBeforeCrossover(closes []float64, period int) *int {
	series := EMASeries(closes, period)
	if len(series) < 2 {
		return nil
	}

	offset := period - 1
	last := len(series) - 1
	if closes[last+offset] < series[last] {
		return nil
	}

	count := 0
	for i := last - 1; i >= 0; i-- {
		if closes[i+offset] >= series[i] {
			break
		}
		count++
	}
	if count == 0 {
		return nil
	}
	return &count
}
