package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEpochRule_Year(t *testing.T) {
	rule := EpochRule{Kind: EpochYear}

	assert.Equal(t, "2026", rule.Epoch(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)))
	// 03:00 UTC on Jan 1 is still Dec 31 in New York.
	assert.Equal(t, "2025", rule.Epoch(time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)))
}

func TestEpochRule_QuarterRange(t *testing.T) {
	rule := EpochRule{Kind: EpochQuarterRange}

	assert.Equal(t, "Q4-2023_Q3-2026", rule.Epoch(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Q3-2023_Q2-2026", rule.Epoch(time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)))
}

func TestEpochRule_DailyUsesEasternDate(t *testing.T) {
	rule := EpochRule{Kind: EpochDaily}

	assert.Equal(t, "2026-10-16", rule.Epoch(time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-10-17", rule.Epoch(time.Date(2026, 10, 17, 5, 0, 0, 0, time.UTC)))
}

func TestEpochRule_DailyRefreshAppendsDay(t *testing.T) {
	rule := EpochRule{Kind: EpochQuarterRange, DailyRefresh: true}

	assert.Equal(t, "Q4-2023_Q3-2026@2026-10-17", rule.Epoch(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)))
}

func TestEpochRule_FridaySneakPeek(t *testing.T) {
	rule := EpochRule{Kind: EpochDaily, FridaySneakPeek: true}

	// 2026-10-16 is a Friday; New York is UTC-4 in October.
	before := time.Date(2026, 10, 16, 19, 29, 0, 0, time.UTC)
	after := time.Date(2026, 10, 16, 19, 30, 0, 0, time.UTC)
	thursday := time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-10-16", rule.Epoch(before))
	assert.Equal(t, "2026-10-16+peek", rule.Epoch(after))
	assert.Equal(t, "2026-10-15", rule.Epoch(thursday))
}

func TestEpochRule_NoneIsConstant(t *testing.T) {
	rule := EpochRule{}

	assert.Equal(t, rule.Epoch(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)), rule.Epoch(time.Now()))
	assert.Equal(t, "none", EpochNone.String())
	assert.Equal(t, "quarter-range", EpochQuarterRange.String())
}
