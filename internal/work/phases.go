package work

import (
	"context"

	"github.com/aristath/quotebar/pkg/formulas"
)

// Phase is a backfill step. Phases run strictly in declaration order.
type Phase int

const (
	PhaseYTD Phase = iota
	PhaseDailyAnalysis
	PhaseWeeklyEMA
	PhaseForwardPE
	PhaseQuarterly
)

// String returns the phase name used in events and status.
func (p Phase) String() string {
	switch p {
	case PhaseYTD:
		return "ytd"
	case PhaseDailyAnalysis:
		return "daily-analysis"
	case PhaseWeeklyEMA:
		return "weekly-ema"
	case PhaseForwardPE:
		return "forward-pe"
	case PhaseQuarterly:
		return "quarterly"
	default:
		return "unknown"
	}
}

type phaseFunc func(b *Backfiller, r *run) PhaseStats

var phaseTable = []struct {
	phase Phase
	run   phaseFunc
}{
	{PhaseYTD, (*Backfiller).runYTD},
	{PhaseDailyAnalysis, (*Backfiller).runDailyAnalysis},
	{PhaseWeeklyEMA, (*Backfiller).runWeeklyEMA},
	{PhaseForwardPE, (*Backfiller).runForwardPE},
	{PhaseQuarterly, (*Backfiller).runQuarterly},
}

// runYTD fetches missing year-to-date baselines one at a time.
func (b *Backfiller) runYTD(r *run) PhaseStats {
	missing := b.caches.YTD.GetMissing(r.symbols)
	progress := newPhaseProgress(PhaseYTD, b.opts.BatchSize, b.notifier(r))

	for i, symbol := range missing {
		if r.ctx.Err() != nil {
			break
		}
		if i > 0 && !Sleep(r.ctx, b.opts.SequentialDelay) {
			break
		}

		price, ok := b.source.FetchYTDBaseline(b.requestContext(r.ctx), symbol)
		if !ok {
			b.log.Debug().Str("symbol", symbol).Msg("YTD baseline unavailable")
			continue
		}
		b.caches.YTD.Set(symbol, price)
		b.save(b.caches.YTD)
		progress.Add()
	}

	return PhaseStats{Missing: len(missing), Filled: progress.Finish()}
}

// runDailyAnalysis fills highest close, swing levels, RSI and daily EMA with
// one fetch per symbol. Only the values missing for that symbol are written.
func (b *Backfiller) runDailyAnalysis(r *run) PhaseStats {
	needHigh := toSet(b.caches.HighestClose.GetMissing(r.symbols))
	needSwing := toSet(b.caches.Swing.GetMissing(r.symbols))
	needRSI := toSet(b.caches.RSI.GetMissing(r.symbols))
	needEMA := toSet(b.caches.EMA.GetMissingDaily(r.symbols))

	missing := make([]string, 0)
	for _, s := range r.symbols {
		if needHigh[s] || needSwing[s] || needRSI[s] || needEMA[s] {
			missing = append(missing, s)
		}
	}

	progress := newPhaseProgress(PhaseDailyAnalysis, b.opts.BatchSize, b.notifier(r))
	ThrottledMap(r.ctx, missing, b.opts.Throttle, func(ctx context.Context, symbol string) (struct{}, bool) {
		analysis, ok := b.source.FetchDailyAnalysis(b.requestContext(ctx), symbol)
		if !ok {
			b.log.Debug().Str("symbol", symbol).Msg("Daily analysis unavailable")
			return struct{}{}, false
		}

		wrote := false
		if needHigh[symbol] && analysis.HighestClose != nil {
			b.caches.HighestClose.Set(symbol, *analysis.HighestClose)
			b.save(b.caches.HighestClose)
			wrote = true
		}
		if needSwing[symbol] && analysis.Swing != nil {
			b.caches.Swing.Set(symbol, *analysis.Swing)
			b.save(b.caches.Swing)
			wrote = true
		}
		if needRSI[symbol] && analysis.RSI != nil {
			b.caches.RSI.Set(symbol, *analysis.RSI)
			b.save(b.caches.RSI)
			wrote = true
		}
		if needEMA[symbol] && analysis.DailyEMA != nil {
			b.caches.EMA.SetDaily(symbol, *analysis.DailyEMA)
			b.save(b.caches.EMA)
			wrote = true
		}
		if wrote {
			progress.Add()
		}
		return struct{}{}, wrote
	})

	return PhaseStats{Missing: len(missing), Filled: progress.Finish()}
}

// runWeeklyEMA fills weekly and monthly EMAs, reusing the cached daily EMA.
func (b *Backfiller) runWeeklyEMA(r *run) PhaseStats {
	missing := b.caches.EMA.GetMissingWeekly(r.symbols)
	progress := newPhaseProgress(PhaseWeeklyEMA, b.opts.BatchSize, b.notifier(r))

	ThrottledMap(r.ctx, missing, b.opts.Throttle, func(ctx context.Context, symbol string) (struct{}, bool) {
		var cachedDaily *float64
		if current, ok := b.caches.EMA.Get(symbol); ok {
			cachedDaily = current.Day
		}

		values, ok := b.source.FetchWeeklyEMA(b.requestContext(ctx), symbol, cachedDaily)
		if !ok || values.Week == nil {
			b.log.Debug().Str("symbol", symbol).Msg("Weekly EMA unavailable")
			return struct{}{}, false
		}
		b.caches.EMA.SetWeekly(symbol, values)
		b.save(b.caches.EMA)
		progress.Add()
		return struct{}{}, true
	})

	return PhaseStats{Missing: len(missing), Filled: progress.Finish()}
}

// runForwardPE fetches forward P/E history for the fundamentals universe. An
// empty successful result is cached; a failure leaves the symbol missing.
func (b *Backfiller) runForwardPE(r *run) PhaseStats {
	missing := b.caches.ForwardPE.GetMissing(r.fundamentals)
	progress := newPhaseProgress(PhaseForwardPE, b.opts.BatchSize, b.notifier(r))

	ThrottledMap(r.ctx, missing, b.opts.Throttle, func(ctx context.Context, symbol string) (struct{}, bool) {
		ratios, ok := b.source.FetchForwardPE(b.requestContext(ctx), symbol)
		if !ok {
			b.log.Debug().Str("symbol", symbol).Msg("Forward P/E unavailable")
			return struct{}{}, false
		}
		b.caches.ForwardPE.SetRatios(symbol, ratios)
		progress.Add()
		return struct{}{}, true
	})

	b.save(b.caches.ForwardPE)
	return PhaseStats{Missing: len(missing), Filled: progress.Finish()}
}

// runQuarterly fills quarter-end closes for the reference quarter window,
// newest quarter first.
func (b *Backfiller) runQuarterly(r *run) PhaseStats {
	quarters := formulas.LastNCompletedQuarters(b.now(), formulas.BackfillQuarters)
	progress := newPhaseProgress(PhaseQuarterly, b.opts.BatchSize, b.notifier(r))
	total := 0

	for _, q := range quarters {
		if r.ctx.Err() != nil {
			break
		}
		missing := b.caches.Quarterly.MissingSymbols(q.ID(), r.symbols)
		total += len(missing)

		ThrottledMap(r.ctx, missing, b.opts.Throttle, func(ctx context.Context, symbol string) (struct{}, bool) {
			price, ok := b.source.FetchQuarterEndPrice(b.requestContext(ctx), symbol, q)
			if !ok {
				b.log.Debug().Str("symbol", symbol).Str("quarter", q.ID()).Msg("Quarter-end price unavailable")
				return struct{}{}, false
			}
			b.caches.Quarterly.SetPrice(q.ID(), symbol, price)
			b.save(b.caches.Quarterly)
			progress.Add()
			return struct{}{}, true
		})
	}

	return PhaseStats{Missing: total, Filled: progress.Finish()}
}

// save persists a cache. Failures are logged and the values stay in memory
// for the next save.
func (b *Backfiller) save(c interface{ Save() error }) {
	if err := c.Save(); err != nil {
		b.log.Warn().Err(err).Msg("Failed to persist backfilled values")
	}
}

func toSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return set
}
