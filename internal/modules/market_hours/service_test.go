package market_hours

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, Eastern)
}

func TestSessionAt_RegularDayBoundaries(t *testing.T) {
	calc := NewSessionCalculator()

	tests := []struct {
		name     string
		time     time.Time
		expected TradingState
	}{
		{"before pre-market", at(2026, 10, 16, 3, 59), Closed},
		{"pre-market open", at(2026, 10, 16, 4, 0), PreMarket},
		{"just before open", at(2026, 10, 16, 9, 29), PreMarket},
		{"regular open", at(2026, 10, 16, 9, 30), Open},
		{"just before close", at(2026, 10, 16, 15, 59), Open},
		{"close", at(2026, 10, 16, 16, 0), AfterHours},
		{"late after-hours", at(2026, 10, 16, 19, 59), AfterHours},
		{"after-hours close", at(2026, 10, 16, 20, 0), Closed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := calc.SessionAt(tt.time)
			assert.Equal(t, tt.expected, session.State)
			assert.Nil(t, session.Holiday)
		})
	}
}

func TestSessionAt_ConvertsFromOtherZones(t *testing.T) {
	calc := NewSessionCalculator()
	// 14:30 UTC is 10:30 EDT in October
	session := calc.SessionAt(time.Date(2026, 10, 16, 14, 30, 0, 0, time.UTC))
	assert.Equal(t, Open, session.State)
}

func TestSessionAt_Weekend(t *testing.T) {
	calc := NewSessionCalculator()
	session := calc.SessionAt(at(2026, 10, 17, 11, 0))
	assert.Equal(t, Closed, session.State)
	assert.Nil(t, session.Holiday)
}

func TestSessionAt_FullHoliday(t *testing.T) {
	calc := NewSessionCalculator()
	session := calc.SessionAt(at(2026, 4, 3, 11, 0))

	assert.Equal(t, Closed, session.State)
	require.NotNil(t, session.Holiday)
	assert.Equal(t, "Good Friday", session.Holiday.Name)
}

func TestSessionAt_EarlyClose(t *testing.T) {
	calc := NewSessionCalculator()

	before := calc.SessionAt(at(2026, 12, 24, 12, 59))
	assert.Equal(t, Open, before.State)
	require.NotNil(t, before.Holiday)
	assert.True(t, before.Holiday.EarlyClose)

	after := calc.SessionAt(at(2026, 12, 24, 13, 0))
	assert.Equal(t, AfterHours, after.State)

	assert.True(t, at(2026, 12, 24, 13, 0).Equal(calc.CloseTime(at(2026, 12, 24, 9, 0))))
	assert.True(t, at(2026, 12, 23, 16, 0).Equal(calc.CloseTime(at(2026, 12, 23, 9, 0))))
}

func TestHolidayOn_NewYearObservedPreviousYear(t *testing.T) {
	calc := NewSessionCalculator()
	h := calc.HolidayOn(at(2021, 12, 31, 10, 0))
	require.NotNil(t, h)
	assert.Equal(t, "New Year's Day", h.Name)
}

func TestNextHoliday(t *testing.T) {
	calc := NewSessionCalculator()

	tests := []struct {
		name     string
		from     time.Time
		expected string
		date     time.Time
	}{
		{"autumn", at(2026, 10, 17, 9, 0), "Thanksgiving Day", date(2026, 11, 26)},
		{"skips early close", at(2026, 12, 20, 9, 0), "Christmas Day", date(2026, 12, 25)},
		{"rolls into next year", at(2026, 12, 26, 9, 0), "New Year's Day", date(2027, 1, 1)},
		{"excludes today", at(2026, 11, 26, 9, 0), "Christmas Day", date(2026, 12, 25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := calc.NextHoliday(tt.from)
			require.NotNil(t, h)
			assert.Equal(t, tt.expected, h.Name)
			assert.Equal(t, tt.date, h.Date)
		})
	}
}

func TestTradingState(t *testing.T) {
	assert.True(t, PreMarket.IsExtendedHours())
	assert.True(t, AfterHours.IsExtendedHours())
	assert.False(t, Open.IsExtendedHours())
	assert.False(t, Closed.IsExtendedHours())

	data, err := json.Marshal(Session{State: AfterHours})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"AfterHours"}`, string(data))
}

func TestTradingState_UnmarshalJSON(t *testing.T) {
	var s Session
	require.NoError(t, json.Unmarshal([]byte(`{"state":"PreMarket"}`), &s))
	assert.Equal(t, PreMarket, s.State)

	assert.Error(t, json.Unmarshal([]byte(`{"state":"Lunch"}`), &s))
}
