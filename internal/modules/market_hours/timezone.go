package market_hours

import (
	"time"
	_ "time/tzdata" // Session math must not depend on the host zoneinfo
)

// Eastern is the exchange timezone (America/New_York).
var Eastern = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// EasternDate returns midnight Eastern of t's Eastern calendar date.
func EasternDate(t time.Time) time.Time {
	et := t.In(Eastern)
	return time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, Eastern)
}

// IsWeekend reports whether t falls on a Saturday or Sunday in Eastern time.
func IsWeekend(t time.Time) bool {
	switch t.In(Eastern).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}
