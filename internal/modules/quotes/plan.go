// Package quotes decides which symbol groups to refresh for the current
// market session and holds the latest quote state.
package quotes

import (
	"time"

	"github.com/aristath/quotebar/internal/modules/market_hours"
)

// PlanKind names a fetch plan.
type PlanKind string

const (
	PlanInitial       PlanKind = "initial"
	PlanClosedMarket  PlanKind = "closed-market"
	PlanRegular       PlanKind = "regular"
	PlanExtendedHours PlanKind = "extended-hours"
)

// Plan declares what one refresh fetches and how its results are applied.
type Plan struct {
	Kind PlanKind `json:"kind"`

	// Watchlist fetches the watchlist together with the closed-market symbol.
	Watchlist bool `json:"watchlist"`
	// ClosedMarketSymbol fetches only the closed-market display symbol.
	ClosedMarketSymbol bool `json:"closedMarketSymbol"`
	Indexes            bool `json:"indexes"`
	AlwaysOpen         bool `json:"alwaysOpen"`
	MarketState        bool `json:"marketState"`

	// Merge keeps quotes for symbols not fetched; otherwise the state is replaced.
	Merge                bool `json:"merge"`
	CompletesInitialLoad bool `json:"completesInitialLoad"`
	// ForceClosedOnWeekend overrides the upstream market state, which can
	// still report Friday's after-hours session over the weekend.
	ForceClosedOnWeekend bool `json:"forceClosedOnWeekend"`
}

// SelectPlan picks the fetch plan for state. It has no side effects.
func SelectPlan(state market_hours.TradingState, initialLoadDone bool, now time.Time) Plan {
	if !initialLoadDone {
		return Plan{
			Kind:                 PlanInitial,
			Watchlist:            true,
			Indexes:              true,
			AlwaysOpen:           true,
			MarketState:          true,
			CompletesInitialLoad: true,
			ForceClosedOnWeekend: market_hours.IsWeekend(now),
		}
	}

	switch state {
	case market_hours.Open:
		return Plan{Kind: PlanRegular, Watchlist: true, Indexes: true}
	case market_hours.PreMarket, market_hours.AfterHours:
		return Plan{Kind: PlanExtendedHours, Watchlist: true, AlwaysOpen: true}
	default:
		return Plan{Kind: PlanClosedMarket, ClosedMarketSymbol: true, AlwaysOpen: true, Merge: true}
	}
}
