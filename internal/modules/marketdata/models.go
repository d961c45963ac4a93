// Package marketdata derives the cached market statistics from upstream
// price series.
package marketdata

import (
	"context"
	"time"

	"github.com/aristath/quotebar/internal/clients/yahoo"
	"github.com/aristath/quotebar/pkg/formulas"
)

// DailyAnalysis is everything derived from one daily close series. A nil
// field means the series was too short for that statistic.
type DailyAnalysis struct {
	HighestClose *float64
	Swing        *formulas.SwingAnalysis
	RSI          *float64
	DailyEMA     *float64
}

// ChartSource is the primary upstream for price series and fundamentals.
type ChartSource interface {
	Closes(ctx context.Context, symbol string, q yahoo.ChartQuery) ([]formulas.PricePoint, error)
	ForwardPE(ctx context.Context, symbol string, from, to time.Time) (map[string]float64, error)
}

// CandleSource is the fallback daily close upstream.
type CandleSource interface {
	Enabled() bool
	DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]formulas.PricePoint, error)
}
