// Package market_hours derives US equity trading sessions from the clock and the exchange holiday calendar.
package market_hours

import (
	"encoding/json"
	"fmt"
	"time"
)

// TradingState is the session the US equity market is in.
type TradingState int

const (
	Closed TradingState = iota
	PreMarket
	Open
	AfterHours
)

// String returns the state name used in logs and the API.
func (s TradingState) String() string {
	switch s {
	case PreMarket:
		return "PreMarket"
	case Open:
		return "Open"
	case AfterHours:
		return "AfterHours"
	default:
		return "Closed"
	}
}

// IsExtendedHours reports whether s is pre-market or after-hours.
func (s TradingState) IsExtendedHours() bool {
	return s == PreMarket || s == AfterHours
}

// MarshalJSON encodes the state by name.
func (s TradingState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name.
func (s *TradingState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, candidate := range []TradingState{Closed, PreMarket, Open, AfterHours} {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown trading state %q", name)
}

// Holiday is a market holiday or early-close day.
type Holiday struct {
	Name       string    `json:"name"`
	Date       time.Time `json:"date"` // Midnight Eastern
	EarlyClose bool      `json:"early_close"`
}

// Session is the market state at an instant.
type Session struct {
	State   TradingState `json:"state"`
	Holiday *Holiday     `json:"holiday,omitempty"`
}

// FixedDateHoliday falls on the same calendar date each year, shifted to the
// nearest weekday when it lands on a weekend.
type FixedDateHoliday struct {
	Name  string
	Month time.Month
	Day   int
}

// RuleBasedHoliday falls on the Nth weekday of a month. N = -1 means the last one.
type RuleBasedHoliday struct {
	Name    string
	Month   time.Month
	Weekday time.Weekday
	N       int
}

// Session boundaries in minutes since midnight Eastern.
const (
	preMarketOpenMinute   = 4 * 60
	regularOpenMinute     = 9*60 + 30
	regularCloseMinute    = 16 * 60
	earlyCloseMinute      = 13 * 60
	afterHoursCloseMinute = 20 * 60
)

var fixedDateHolidays = []FixedDateHoliday{
	{Name: "New Year's Day", Month: time.January, Day: 1},
	{Name: "Juneteenth", Month: time.June, Day: 19},
	{Name: "Independence Day", Month: time.July, Day: 4},
	{Name: "Christmas Day", Month: time.December, Day: 25},
}

var ruleBasedHolidays = []RuleBasedHoliday{
	{Name: "Martin Luther King Jr. Day", Month: time.January, Weekday: time.Monday, N: 3},
	{Name: "Washington's Birthday", Month: time.February, Weekday: time.Monday, N: 3},
	{Name: "Memorial Day", Month: time.May, Weekday: time.Monday, N: -1},
	{Name: "Labor Day", Month: time.September, Weekday: time.Monday, N: 1},
	{Name: "Thanksgiving Day", Month: time.November, Weekday: time.Thursday, N: 4},
}
