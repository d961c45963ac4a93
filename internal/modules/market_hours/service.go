package market_hours

import (
	"sync"
	"time"
)

// SessionCalculator computes the trading session for an instant. Holiday
// calendars are computed once per year and cached.
type SessionCalculator struct {
	mu           sync.Mutex
	holidayCache map[int][]Holiday
	now          func() time.Time
}

// NewSessionCalculator creates a calculator using the wall clock.
func NewSessionCalculator() *SessionCalculator {
	return &SessionCalculator{
		holidayCache: make(map[int][]Holiday),
		now:          time.Now,
	}
}

// HolidaysForYear returns the holidays and early closes of year, sorted by date.
// The returned slice must not be modified.
func (c *SessionCalculator) HolidaysForYear(year int) []Holiday {
	c.mu.Lock()
	defer c.mu.Unlock()

	if holidays, ok := c.holidayCache[year]; ok {
		return holidays
	}
	holidays := CalculateUSHolidays(year)
	c.holidayCache[year] = holidays
	return holidays
}

// HolidayOn returns the holiday or early close falling on t's Eastern date.
func (c *SessionCalculator) HolidayOn(t time.Time) *Holiday {
	date := EasternDate(t)
	// The following year is checked for a New Year's Day observed on December 31.
	for _, year := range []int{date.Year(), date.Year() + 1} {
		for _, h := range c.HolidaysForYear(year) {
			if h.Date.Equal(date) {
				holiday := h
				return &holiday
			}
		}
	}
	return nil
}

// SessionAt returns the session in effect at t.
func (c *SessionCalculator) SessionAt(t time.Time) Session {
	if IsWeekend(t) {
		return Session{State: Closed}
	}

	holiday := c.HolidayOn(t)
	if holiday != nil && !holiday.EarlyClose {
		return Session{State: Closed, Holiday: holiday}
	}

	closeMinute := regularCloseMinute
	if holiday != nil {
		closeMinute = earlyCloseMinute
	}

	et := t.In(Eastern)
	minutes := et.Hour()*60 + et.Minute()

	var state TradingState
	switch {
	case minutes < preMarketOpenMinute:
		state = Closed
	case minutes < regularOpenMinute:
		state = PreMarket
	case minutes < closeMinute:
		state = Open
	case minutes < afterHoursCloseMinute:
		state = AfterHours
	default:
		state = Closed
	}

	return Session{State: state, Holiday: holiday}
}

// Current returns the session in effect now.
func (c *SessionCalculator) Current() Session {
	return c.SessionAt(c.now())
}

// CurrentState returns the trading state in effect now.
func (c *SessionCalculator) CurrentState() TradingState {
	return c.Current().State
}

// CloseTime returns the regular-session close on t's Eastern date,
// accounting for early closes.
func (c *SessionCalculator) CloseTime(t time.Time) time.Time {
	minute := regularCloseMinute
	if h := c.HolidayOn(t); h != nil && h.EarlyClose {
		minute = earlyCloseMinute
	}
	return EasternDate(t).Add(time.Duration(minute) * time.Minute)
}

// NextHoliday returns the first full-closure holiday dated after t's Eastern
// date, scanning t's year and the following one. Early closes are skipped.
func (c *SessionCalculator) NextHoliday(t time.Time) *Holiday {
	today := EasternDate(t)
	for _, year := range []int{today.Year(), today.Year() + 1} {
		for _, h := range c.HolidaysForYear(year) {
			if h.EarlyClose || !h.Date.After(today) {
				continue
			}
			holiday := h
			return &holiday
		}
	}
	return nil
}
