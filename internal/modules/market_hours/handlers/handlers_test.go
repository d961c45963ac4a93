package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(now time.Time) *Handler {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	h := NewHandler(market_hours.NewSessionCalculator(), logger)
	h.now = func() time.Time { return now }
	return h
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response["metadata"])
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok)
	return data
}

func TestHandleGetSession(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		state    string
		closesAt bool
		holiday  string
		extended bool
	}{
		{"regular session", time.Date(2026, 10, 16, 10, 0, 0, 0, market_hours.Eastern), "Open", true, "", false},
		{"after hours", time.Date(2026, 10, 16, 17, 0, 0, 0, market_hours.Eastern), "AfterHours", false, "", true},
		{"holiday", time.Date(2026, 11, 26, 10, 0, 0, 0, market_hours.Eastern), "Closed", false, "Thanksgiving Day", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(tt.now)
			req := httptest.NewRequest("GET", "/api/market-hours/session", nil)
			w := httptest.NewRecorder()

			h.HandleGetSession(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			data := decodeData(t, w)
			assert.Equal(t, tt.state, data["state"])
			assert.Equal(t, tt.extended, data["extended_hours"])
			_, hasClose := data["closes_at"]
			assert.Equal(t, tt.closesAt, hasClose)
			if tt.holiday != "" {
				holiday := data["holiday"].(map[string]interface{})
				assert.Equal(t, tt.holiday, holiday["name"])
			}
		})
	}
}

func TestHandleGetHolidays(t *testing.T) {
	h := newTestHandler(time.Date(2026, 10, 16, 10, 0, 0, 0, market_hours.Eastern))

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedYear   float64
	}{
		{"default year", "", http.StatusOK, 2026},
		{"explicit year", "?year=2027", http.StatusOK, 2027},
		{"invalid year", "?year=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/market-hours/holidays"+tt.query, nil)
			w := httptest.NewRecorder()

			h.HandleGetHolidays(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			data := decodeData(t, w)
			assert.Equal(t, tt.expectedYear, data["year"])
			assert.NotEmpty(t, data["holidays"])
		})
	}
}

func TestHandleGetNextHoliday(t *testing.T) {
	h := newTestHandler(time.Date(2026, 10, 17, 10, 0, 0, 0, market_hours.Eastern))
	req := httptest.NewRequest("GET", "/api/market-hours/next-holiday", nil)
	w := httptest.NewRecorder()

	h.HandleGetNextHoliday(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	holiday := data["holiday"].(map[string]interface{})
	assert.Equal(t, "Thanksgiving Day", holiday["name"])
	assert.Equal(t, false, holiday["early_close"])
}
