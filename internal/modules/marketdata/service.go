package marketdata

import (
	"context"
	"time"

	"github.com/aristath/quotebar/internal/cache"
	"github.com/aristath/quotebar/internal/clients/yahoo"
	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/aristath/quotebar/pkg/formulas"
	"github.com/rs/zerolog"
)

// Look-back ranges for the EMA series. Each leaves room for the seed plus
// enough smoothing steps.
const (
	dailyEMARange   = "3mo"
	weeklyEMARange  = "2y"
	monthlyEMARange = "5y"
)

// Service fetches upstream series and reduces them to cached statistics.
// Every method collapses upstream failures to ok == false.
type Service struct {
	chart    ChartSource
	fallback CandleSource
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates the market data service. fallback may be nil.
func NewService(chart ChartSource, fallback CandleSource, log zerolog.Logger) *Service {
	return &Service{
		chart:    chart,
		fallback: fallback,
		now:      time.Now,
		log:      log.With().Str("service", "marketdata").Logger(),
	}
}

// SetClock replaces the wall clock.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// FetchYTDBaseline returns the last close of the previous Eastern calendar
// year.
func (s *Service) FetchYTDBaseline(ctx context.Context, symbol string) (float64, bool) {
	year := s.now().In(market_hours.Eastern).Year()
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, market_hours.Eastern)
	from := yearStart.AddDate(0, 0, -10)
	to := yearStart.AddDate(0, 0, 2)

	return s.closeBefore(ctx, symbol, from, to, yearStart)
}

// FetchQuarterEndPrice returns symbol's last close of quarter, searching the
// window around quarter end so weekends and holidays are covered.
func (s *Service) FetchQuarterEndPrice(ctx context.Context, symbol string, quarter formulas.Quarter) (float64, bool) {
	from, to := quarter.QueryWindow()
	end := quarter.End()
	cutoff := time.Date(end.Year(), end.Month(), end.Day()+1, 0, 0, 0, 0, market_hours.Eastern)

	return s.closeBefore(ctx, symbol, from, to, cutoff)
}

// closeBefore finds the last close strictly before cutoff in [from, to),
// trying the fallback upstream when the primary has nothing.
func (s *Service) closeBefore(ctx context.Context, symbol string, from, to, cutoff time.Time) (float64, bool) {
	limit := cutoff.Add(-time.Nanosecond)

	points, err := s.chart.Closes(ctx, symbol, yahoo.ChartQuery{Interval: yahoo.IntervalDay, From: from, To: to})
	if err == nil {
		if price := formulas.LastCloseOnOrBefore(points, limit); price != nil {
			return *price, true
		}
	} else {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Primary close lookup failed")
	}

	if s.fallback == nil || !s.fallback.Enabled() {
		return 0, false
	}
	points, err = s.fallback.DailyCloses(ctx, symbol, from, to)
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Fallback close lookup failed")
		return 0, false
	}
	if price := formulas.LastCloseOnOrBefore(points, limit); price != nil {
		return *price, true
	}
	return 0, false
}

// FetchDailyAnalysis fetches daily closes over the display quarter range plus
// the current quarter and derives highest close, swing levels, RSI and the
// daily EMA in one pass.
func (s *Service) FetchDailyAnalysis(ctx context.Context, symbol string) (DailyAnalysis, bool) {
	now := s.now()
	quarters := formulas.LastNCompletedQuarters(now, formulas.DisplayQuarters)
	from := quarters[len(quarters)-1].Start()

	points, err := s.chart.Closes(ctx, symbol, yahoo.ChartQuery{Interval: yahoo.IntervalDay, From: from, To: now.Add(24 * time.Hour)})
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Daily series unavailable")
		return DailyAnalysis{}, false
	}

	closes := formulas.Closes(points)
	return DailyAnalysis{
		HighestClose: formulas.HighestClose(points),
		Swing:        formulas.AnalyzeSwings(points),
		RSI:          formulas.CalculateRSI(closes, formulas.DefaultRSIPeriod),
		DailyEMA:     formulas.CalculateEMA(closes, formulas.DefaultEMAPeriod),
	}, true
}

// FetchWeeklyEMA computes the weekly and monthly EMAs and the weekly
// crossover count. cachedDaily is reused as the daily EMA; when nil the
// daily EMA is fetched too.
func (s *Service) FetchWeeklyEMA(ctx context.Context, symbol string, cachedDaily *float64) (cache.EMAValues, bool) {
	weekly, err := s.chart.Closes(ctx, symbol, yahoo.ChartQuery{Interval: yahoo.IntervalWeek, Range: weeklyEMARange})
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Weekly series unavailable")
		return cache.EMAValues{}, false
	}

	weeklyCloses := formulas.Closes(weekly)
	values := cache.EMAValues{
		Week:                    formulas.CalculateEMA(weeklyCloses, formulas.DefaultEMAPeriod),
		WeekCrossoverWeeksBelow: formulas.WeeksBelowBeforeCrossover(weeklyCloses, formulas.DefaultEMAPeriod),
		Day:                     cachedDaily,
	}
	if values.Week == nil {
		return cache.EMAValues{}, false
	}

	if monthly, err := s.chart.Closes(ctx, symbol, yahoo.ChartQuery{Interval: yahoo.IntervalMonth, Range: monthlyEMARange}); err == nil {
		values.Month = formulas.CalculateEMA(formulas.Closes(monthly), formulas.DefaultEMAPeriod)
	} else {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Monthly series unavailable")
	}

	if values.Day == nil {
		if daily, err := s.chart.Closes(ctx, symbol, yahoo.ChartQuery{Interval: yahoo.IntervalDay, Range: dailyEMARange}); err == nil {
			values.Day = formulas.CalculateEMA(formulas.Closes(daily), formulas.DefaultEMAPeriod)
		}
	}

	return values, true
}

// FetchForwardPE returns quarterly forward P/E ratios over the display
// quarter range. A symbol without fundamentals returns an empty map and true.
func (s *Service) FetchForwardPE(ctx context.Context, symbol string) (map[string]float64, bool) {
	now := s.now()
	quarters := formulas.LastNCompletedQuarters(now, formulas.DisplayQuarters)
	from := quarters[len(quarters)-1].Start()

	ratios, err := s.chart.ForwardPE(ctx, symbol, from, now)
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Forward P/E unavailable")
		return nil, false
	}

	active := make(map[string]bool, len(quarters))
	for _, q := range quarters {
		active[q.ID()] = true
	}
	out := make(map[string]float64, len(ratios))
	for id, v := range ratios {
		if active[id] {
			out[id] = v
		}
	}
	return out, true
}
