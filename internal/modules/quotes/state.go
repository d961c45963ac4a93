package quotes

import (
	"maps"
	"sync"
	"time"

	"github.com/aristath/quotebar/internal/clients/yahoo"
	"github.com/aristath/quotebar/internal/modules/market_hours"
)

// Result is what one refresh fetched.
type Result struct {
	Quotes      map[string]yahoo.Quote
	MarketState *market_hours.TradingState
}

// Snapshot is a copy of the quote state.
type Snapshot struct {
	Quotes      map[string]yahoo.Quote    `json:"quotes"`
	MarketState market_hours.TradingState `json:"marketState"`
	Plan        PlanKind                  `json:"plan,omitempty"`
	UpdatedAt   *time.Time                `json:"updatedAt,omitempty"`
	InitialLoad bool                      `json:"initialLoadDone"`
}

// State holds the latest quotes. It is safe for concurrent use.
type State struct {
	mu          sync.RWMutex
	quotes      map[string]yahoo.Quote
	marketState market_hours.TradingState
	plan        PlanKind
	updatedAt   time.Time
	initialDone bool
}

// NewState creates an empty state.
func NewState() *State {
	return &State{quotes: make(map[string]yahoo.Quote)}
}

// InitialLoadDone reports whether an initial plan has been applied.
func (s *State) InitialLoadDone() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialDone
}

// Apply folds a refresh result into the state according to plan.
func (s *State) Apply(plan Plan, result Result, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.Merge {
		for sym, q := range result.Quotes {
			s.quotes[sym] = q
		}
	} else {
		s.quotes = maps.Clone(result.Quotes)
		if s.quotes == nil {
			s.quotes = make(map[string]yahoo.Quote)
		}
	}

	if result.MarketState != nil {
		s.marketState = *result.MarketState
	}
	if plan.CompletesInitialLoad {
		s.initialDone = true
	}
	s.plan = plan.Kind
	s.updatedAt = at
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Quotes:      maps.Clone(s.quotes),
		MarketState: s.marketState,
		Plan:        s.plan,
		InitialLoad: s.initialDone,
	}
	if !s.updatedAt.IsZero() {
		t := s.updatedAt
		snap.UpdatedAt = &t
	}
	return snap
}
