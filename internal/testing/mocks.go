package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/aristath/quotebar/internal/cache"
	"github.com/aristath/quotebar/internal/clients/yahoo"
	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/aristath/quotebar/internal/modules/marketdata"
	"github.com/aristath/quotebar/pkg/formulas"
)

// MockDataSource is a configurable backfill data source. Every fetch succeeds
// with Price unless the symbol has been marked failing.
type MockDataSource struct {
	mu      sync.Mutex
	Price   float64
	failing map[string]bool
	calls   map[string]int
}

// NewMockDataSource creates a data source returning price for every value
func NewMockDataSource(price float64) *MockDataSource {
	return &MockDataSource{
		Price:   price,
		failing: make(map[string]bool),
		calls:   make(map[string]int),
	}
}

// SetFailing makes every fetch for symbol report no data
func (m *MockDataSource) SetFailing(symbol string, failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[symbol] = failing
}

// Calls returns how many fetches of any kind were made for symbol
func (m *MockDataSource) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *MockDataSource) record(symbol string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[symbol]++
	return m.Price, !m.failing[symbol]
}

// FetchYTDBaseline returns Price
func (m *MockDataSource) FetchYTDBaseline(ctx context.Context, symbol string) (float64, bool) {
	return m.record(symbol)
}

// FetchDailyAnalysis returns Price for every daily statistic
func (m *MockDataSource) FetchDailyAnalysis(ctx context.Context, symbol string) (marketdata.DailyAnalysis, bool) {
	price, ok := m.record(symbol)
	if !ok {
		return marketdata.DailyAnalysis{}, false
	}
	rsi := 50.0
	return marketdata.DailyAnalysis{
		HighestClose: &price,
		Swing:        &formulas.SwingAnalysis{Breakout: &formulas.SwingLevel{Price: price}},
		RSI:          &rsi,
		DailyEMA:     &price,
	}, true
}

// FetchWeeklyEMA returns Price for the weekly and monthly EMA
func (m *MockDataSource) FetchWeeklyEMA(ctx context.Context, symbol string, cachedDaily *float64) (cache.EMAValues, bool) {
	price, ok := m.record(symbol)
	if !ok {
		return cache.EMAValues{}, false
	}
	weeks := 0
	return cache.EMAValues{Day: cachedDaily, Week: &price, Month: &price, WeekCrossoverWeeksBelow: &weeks}, true
}

// FetchForwardPE returns an empty history
func (m *MockDataSource) FetchForwardPE(ctx context.Context, symbol string) (map[string]float64, bool) {
	_, ok := m.record(symbol)
	if !ok {
		return nil, false
	}
	return map[string]float64{}, true
}

// FetchQuarterEndPrice returns Price
func (m *MockDataSource) FetchQuarterEndPrice(ctx context.Context, symbol string, quarter formulas.Quarter) (float64, bool) {
	return m.record(symbol)
}

// MockQuoteSource serves fixed quotes
type MockQuoteSource struct {
	mu     sync.Mutex
	quotes map[string]yahoo.Quote
	state  market_hours.TradingState
	err    error
}

// NewMockQuoteSource creates a quote source reporting state as the market state
func NewMockQuoteSource(state market_hours.TradingState) *MockQuoteSource {
	return &MockQuoteSource{quotes: make(map[string]yahoo.Quote), state: state}
}

// SetQuote registers a quote
func (m *MockQuoteSource) SetQuote(q yahoo.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.Symbol] = q
}

// SetError makes MarketState fail
func (m *MockQuoteSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Quote returns the registered quote or yahoo.ErrNoData
func (m *MockQuoteSource) Quote(ctx context.Context, symbol string) (yahoo.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[symbol]
	if !ok {
		return yahoo.Quote{}, yahoo.ErrNoData
	}
	return q, nil
}

// MarketState returns the configured state
func (m *MockQuoteSource) MarketState(ctx context.Context, symbol string) (market_hours.TradingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return market_hours.Closed, m.err
	}
	return m.state, nil
}

// RecordedEvent is one call to MockEmitter.Emit
type RecordedEvent struct {
	Name string
	Data any
}

// MockEmitter records emitted events
type MockEmitter struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// Emit records the event
func (m *MockEmitter) Emit(event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, RecordedEvent{Name: event, Data: data})
}

// Events returns a copy of the recorded events
func (m *MockEmitter) Events() []RecordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedEvent(nil), m.events...)
}

// Names returns the recorded event names in order
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.events))
	for i, e := range m.events {
		names[i] = e.Name
	}
	return names
}

// ErrMock is a generic failure for tests
var ErrMock = errors.New("mock failure")
