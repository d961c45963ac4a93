package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/quotebar/internal/clients/yahoo"
	"github.com/aristath/quotebar/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChart struct {
	series   map[string][]formulas.PricePoint // keyed by interval
	err      error
	ratios   map[string]float64
	ratioErr error
	queries  []yahoo.ChartQuery
}

func (f *fakeChart) Closes(_ context.Context, _ string, q yahoo.ChartQuery) ([]formulas.PricePoint, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	points, ok := f.series[q.Interval]
	if !ok {
		return nil, yahoo.ErrNoData
	}
	return points, nil
}

func (f *fakeChart) ForwardPE(context.Context, string, time.Time, time.Time) (map[string]float64, error) {
	return f.ratios, f.ratioErr
}

type fakeCandles struct {
	enabled bool
	points  []formulas.PricePoint
	calls   int
}

func (f *fakeCandles) Enabled() bool { return f.enabled }

func (f *fakeCandles) DailyCloses(context.Context, string, time.Time, time.Time) ([]formulas.PricePoint, error) {
	f.calls++
	return f.points, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func bar(y int, m time.Month, d int, close float64) formulas.PricePoint {
	return formulas.PricePoint{Date: time.Date(y, m, d, 14, 30, 0, 0, time.UTC), Close: close}
}

func newService(chart ChartSource, fallback CandleSource, now time.Time) *Service {
	s := NewService(chart, fallback, testLogger())
	s.SetClock(func() time.Time { return now })
	return s
}

var today = time.Date(2026, 10, 17, 16, 0, 0, 0, time.UTC)

func TestService_FetchYTDBaseline(t *testing.T) {
	chart := &fakeChart{series: map[string][]formulas.PricePoint{
		yahoo.IntervalDay: {bar(2025, 12, 30, 250), bar(2025, 12, 31, 252.5), bar(2026, 1, 2, 255)},
	}}

	price, ok := newService(chart, nil, today).FetchYTDBaseline(context.Background(), "AAPL")

	require.True(t, ok)
	assert.Equal(t, 252.5, price)
}

func TestService_FetchYTDBaselineFallsBack(t *testing.T) {
	chart := &fakeChart{err: errors.New("boom")}
	candles := &fakeCandles{enabled: true, points: []formulas.PricePoint{bar(2025, 12, 31, 99)}}

	price, ok := newService(chart, candles, today).FetchYTDBaseline(context.Background(), "AAPL")

	require.True(t, ok)
	assert.Equal(t, 99.0, price)
	assert.Equal(t, 1, candles.calls)
}

func TestService_DisabledFallbackIsSkipped(t *testing.T) {
	chart := &fakeChart{err: errors.New("boom")}
	candles := &fakeCandles{enabled: false}

	_, ok := newService(chart, candles, today).FetchYTDBaseline(context.Background(), "AAPL")

	assert.False(t, ok)
	assert.Equal(t, 0, candles.calls)
}

func TestService_FetchQuarterEndPrice(t *testing.T) {
	// Q3 2026 ends on a Wednesday; the window also returns October bars.
	chart := &fakeChart{series: map[string][]formulas.PricePoint{
		yahoo.IntervalDay: {bar(2026, 9, 29, 10), bar(2026, 9, 30, 11), bar(2026, 10, 1, 12)},
	}}

	price, ok := newService(chart, nil, today).FetchQuarterEndPrice(context.Background(), "AAPL", formulas.Quarter{Year: 2026, Number: 3})

	require.True(t, ok)
	assert.Equal(t, 11.0, price)
	require.Len(t, chart.queries, 1)
	assert.Equal(t, yahoo.IntervalDay, chart.queries[0].Interval)
}

func TestService_FetchDailyAnalysis(t *testing.T) {
	points := make([]formulas.PricePoint, 0, 30)
	for i := 0; i < 30; i++ {
		points = append(points, bar(2026, 9, 1+i, float64(100+i)))
	}
	chart := &fakeChart{series: map[string][]formulas.PricePoint{yahoo.IntervalDay: points}}

	analysis, ok := newService(chart, nil, today).FetchDailyAnalysis(context.Background(), "AAPL")

	require.True(t, ok)
	require.NotNil(t, analysis.HighestClose)
	assert.Equal(t, 129.0, *analysis.HighestClose)
	require.NotNil(t, analysis.RSI)
	assert.Equal(t, 100.0, *analysis.RSI)
	require.NotNil(t, analysis.DailyEMA)
	assert.NotNil(t, analysis.Swing)
}

func TestService_FetchDailyAnalysisFailure(t *testing.T) {
	_, ok := newService(&fakeChart{err: errors.New("boom")}, nil, today).FetchDailyAnalysis(context.Background(), "AAPL")
	assert.False(t, ok)
}

func TestService_FetchWeeklyEMAReusesCachedDaily(t *testing.T) {
	weekly := []formulas.PricePoint{bar(2026, 9, 4, 1), bar(2026, 9, 11, 2), bar(2026, 9, 18, 3), bar(2026, 9, 25, 4), bar(2026, 10, 2, 5)}
	chart := &fakeChart{series: map[string][]formulas.PricePoint{
		yahoo.IntervalWeek:  weekly,
		yahoo.IntervalMonth: weekly,
	}}
	daily := 42.0

	values, ok := newService(chart, nil, today).FetchWeeklyEMA(context.Background(), "AAPL", &daily)

	require.True(t, ok)
	require.NotNil(t, values.Week)
	assert.Equal(t, 3.0, *values.Week)
	require.NotNil(t, values.Month)
	assert.Equal(t, 42.0, *values.Day)
	for _, q := range chart.queries {
		assert.NotEqual(t, yahoo.IntervalDay, q.Interval, "daily series must not be refetched")
	}
}

func TestService_FetchWeeklyEMAInsufficientHistory(t *testing.T) {
	chart := &fakeChart{series: map[string][]formulas.PricePoint{
		yahoo.IntervalWeek: {bar(2026, 10, 2, 5)},
	}}

	_, ok := newService(chart, nil, today).FetchWeeklyEMA(context.Background(), "NEW", nil)
	assert.False(t, ok)
}

func TestService_FetchForwardPEKeepsActiveQuarters(t *testing.T) {
	chart := &fakeChart{ratios: map[string]float64{"Q3-2026": 31.2, "Q1-2019": 12}}

	ratios, ok := newService(chart, nil, today).FetchForwardPE(context.Background(), "AAPL")

	require.True(t, ok)
	assert.Equal(t, map[string]float64{"Q3-2026": 31.2}, ratios)
}

func TestService_FetchForwardPEEmptyIsSuccess(t *testing.T) {
	ratios, ok := newService(&fakeChart{ratios: map[string]float64{}}, nil, today).FetchForwardPE(context.Background(), "BTC-USD")

	assert.True(t, ok)
	assert.Empty(t, ratios)
}

func TestService_FetchForwardPEFailure(t *testing.T) {
	_, ok := newService(&fakeChart{ratioErr: errors.New("boom")}, nil, today).FetchForwardPE(context.Background(), "AAPL")
	assert.False(t, ok)
}
