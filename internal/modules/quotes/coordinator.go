package quotes

import (
	"context"
	"time"

	"github.com/aristath/quotebar/internal/clients/yahoo"
	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/aristath/quotebar/internal/work"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// EventQuotesUpdated is emitted after every applied refresh.
const EventQuotesUpdated = "QuotesUpdated"

// QuoteSource fetches single quotes and the upstream market state.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (yahoo.Quote, error)
	MarketState(ctx context.Context, symbol string) (market_hours.TradingState, error)
}

// SessionSource reports the locally computed session.
type SessionSource interface {
	SessionAt(t time.Time) market_hours.Session
}

// UniverseSource returns the current symbol universe.
type UniverseSource func() *config.Universe

// EventEmitter publishes refresh events.
type EventEmitter interface {
	Emit(event string, data any)
}

// UpdatedEvent summarizes an applied refresh.
type UpdatedEvent struct {
	Plan        PlanKind                  `json:"plan"`
	Symbols     int                       `json:"symbols"`
	MarketState market_hours.TradingState `json:"marketState"`
}

// Coordinator runs quote refreshes: it selects a plan, fetches the plan's
// symbol groups concurrently and applies the combined result to State.
type Coordinator struct {
	source   QuoteSource
	sessions SessionSource
	universe UniverseSource
	state    *State
	emitter  EventEmitter
	throttle work.ThrottleOptions
	now      func() time.Time
	log      zerolog.Logger
}

// NewCoordinator creates a coordinator. emitter may be nil.
func NewCoordinator(source QuoteSource, sessions SessionSource, universe UniverseSource, state *State, emitter EventEmitter, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		source:   source,
		sessions: sessions,
		universe: universe,
		state:    state,
		emitter:  emitter,
		throttle: work.DefaultThrottle,
		now:      time.Now,
		log:      log.With().Str("component", "quotes").Logger(),
	}
}

// SetClock replaces the wall clock.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// SetThrottle replaces the per-group fetch pacing.
func (c *Coordinator) SetThrottle(opts work.ThrottleOptions) {
	c.throttle = opts
}

// State returns the quote state the coordinator writes to.
func (c *Coordinator) State() *State {
	return c.state
}

// Refresh runs one refresh and returns the plan it executed. Individual
// symbol failures are skipped; only cancellation is returned as an error.
func (c *Coordinator) Refresh(ctx context.Context) (Plan, error) {
	now := c.now()
	session := c.sessions.SessionAt(now)
	plan := SelectPlan(session.State, c.state.InitialLoadDone(), now)
	u := c.universe()

	var (
		watchlist, closed, indexes, alwaysOpen map[string]yahoo.Quote
		upstreamState                          *market_hours.TradingState
	)

	g, gctx := errgroup.WithContext(ctx)
	if plan.Watchlist {
		g.Go(func() error {
			watchlist = c.fetchGroup(gctx, withClosedSymbol(u.Watchlist, u.ClosedMarketSymbol))
			return nil
		})
	}
	if plan.ClosedMarketSymbol && u.ClosedMarketSymbol != "" {
		g.Go(func() error {
			closed = c.fetchGroup(gctx, []string{u.ClosedMarketSymbol})
			return nil
		})
	}
	if plan.Indexes {
		g.Go(func() error {
			indexes = c.fetchGroup(gctx, u.IndexSymbols)
			return nil
		})
	}
	if plan.AlwaysOpen {
		g.Go(func() error {
			alwaysOpen = c.fetchGroup(gctx, u.AlwaysOpenSymbols)
			return nil
		})
	}
	if plan.MarketState {
		g.Go(func() error {
			state, err := c.source.MarketState(gctx, marketStateSymbol(u))
			if err != nil {
				c.log.Debug().Err(err).Msg("Upstream market state unavailable")
				return nil
			}
			upstreamState = &state
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return plan, err
	}

	result := Result{Quotes: make(map[string]yahoo.Quote)}
	for _, group := range []map[string]yahoo.Quote{watchlist, closed, indexes, alwaysOpen} {
		for sym, q := range group {
			result.Quotes[sym] = q
		}
	}

	marketState := session.State
	if upstreamState != nil {
		marketState = *upstreamState
	}
	if plan.ForceClosedOnWeekend {
		marketState = market_hours.Closed
	}
	result.MarketState = &marketState

	c.state.Apply(plan, result, now)

	c.log.Debug().
		Str("plan", string(plan.Kind)).
		Int("quotes", len(result.Quotes)).
		Str("market_state", marketState.String()).
		Msg("Quotes refreshed")

	if c.emitter != nil {
		c.emitter.Emit(EventQuotesUpdated, UpdatedEvent{
			Plan:        plan.Kind,
			Symbols:     len(result.Quotes),
			MarketState: marketState,
		})
	}
	return plan, nil
}

func (c *Coordinator) fetchGroup(ctx context.Context, symbols []string) map[string]yahoo.Quote {
	return work.ThrottledMap(ctx, symbols, c.throttle, func(ctx context.Context, symbol string) (yahoo.Quote, bool) {
		q, err := c.source.Quote(ctx, symbol)
		if err != nil {
			c.log.Debug().Err(err).Str("symbol", symbol).Msg("Quote unavailable")
			return yahoo.Quote{}, false
		}
		return q, true
	})
}

func withClosedSymbol(watchlist []string, closed string) []string {
	out := make([]string, 0, len(watchlist)+1)
	out = append(out, watchlist...)
	if closed != "" {
		out = append(out, closed)
	}
	return out
}

func marketStateSymbol(u *config.Universe) string {
	if len(u.IndexSymbols) > 0 {
		return u.IndexSymbols[0]
	}
	if len(u.Watchlist) > 0 {
		return u.Watchlist[0]
	}
	return "^GSPC"
}
