package cache

import (
	"strconv"
	"time"

	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/aristath/quotebar/pkg/formulas"
)

// EpochKind selects how a cache derives its invalidation key.
type EpochKind int

const (
	// EpochNone never invalidates wholesale; the cache prunes entries instead.
	EpochNone EpochKind = iota
	// EpochYear changes at the Eastern calendar year boundary.
	EpochYear
	// EpochQuarterRange changes when a new quarter completes.
	EpochQuarterRange
	// EpochDaily changes at Eastern midnight.
	EpochDaily
)

// String returns the kind name.
func (k EpochKind) String() string {
	switch k {
	case EpochYear:
		return "year"
	case EpochQuarterRange:
		return "quarter-range"
	case EpochDaily:
		return "daily"
	default:
		return "none"
	}
}

// Weekly candles are close enough to final from Friday 15:30 Eastern that
// weekly EMAs are refetched once more for a preview of the week's close.
const sneakPeekMinute = 15*60 + 30

// EpochRule computes a cache's epoch identifier for an instant.
type EpochRule struct {
	Kind EpochKind
	// DailyRefresh additionally rolls the epoch every Eastern day.
	DailyRefresh bool
	// FridaySneakPeek rolls the epoch once more at Friday 15:30 Eastern.
	FridaySneakPeek bool
}

// Epoch returns the identifier for now. Two instants share a cache
// generation iff their identifiers are equal.
func (r EpochRule) Epoch(now time.Time) string {
	et := now.In(market_hours.Eastern)

	var epoch string
	switch r.Kind {
	case EpochYear:
		epoch = strconv.Itoa(et.Year())
	case EpochQuarterRange:
		epoch = formulas.QuarterRangeID(et, formulas.DisplayQuarters)
	case EpochDaily:
		epoch = dayKey(et)
	default:
		epoch = "rolling"
	}

	if r.DailyRefresh && r.Kind != EpochDaily {
		epoch += "@" + dayKey(et)
	}
	if r.FridaySneakPeek && et.Weekday() == time.Friday && et.Hour()*60+et.Minute() >= sneakPeekMinute {
		epoch += "+peek"
	}
	return epoch
}

func dayKey(et time.Time) string {
	return et.Format("2006-01-02")
}
