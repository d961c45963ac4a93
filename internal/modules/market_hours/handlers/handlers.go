// Package handlers provides HTTP handlers for market hours operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/rs/zerolog"
)

// Handler handles market hours HTTP requests
type Handler struct {
	calc *market_hours.SessionCalculator
	log  zerolog.Logger
	now  func() time.Time
}

// NewHandler creates a new market hours handler
func NewHandler(calc *market_hours.SessionCalculator, log zerolog.Logger) *Handler {
	return &Handler{
		calc: calc,
		log:  log.With().Str("handler", "market_hours").Logger(),
		now:  time.Now,
	}
}

// HandleGetSession handles GET /api/market-hours/session
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	session := h.calc.SessionAt(now)

	data := map[string]interface{}{
		"state":          session.State,
		"extended_hours": session.State.IsExtendedHours(),
		"checked_at":     now.Format(time.RFC3339),
	}
	if session.Holiday != nil {
		data["holiday"] = session.Holiday
	}
	if session.State == market_hours.Open {
		data["closes_at"] = h.calc.CloseTime(now).Format(time.RFC3339)
	}

	h.writeJSON(w, http.StatusOK, envelope(data))
}

// HandleGetHolidays handles GET /api/market-hours/holidays?year=YYYY
func (h *Handler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.now().In(market_hours.Eastern).Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsedYear, err := strconv.Atoi(yearStr)
		if err != nil || parsedYear < 1900 || parsedYear > 2200 {
			http.Error(w, "invalid year parameter", http.StatusBadRequest)
			return
		}
		year = parsedYear
	}

	holidays := h.calc.HolidaysForYear(year)

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"year":     year,
		"holidays": holidays,
	}))
}

// HandleGetNextHoliday handles GET /api/market-hours/next-holiday
func (h *Handler) HandleGetNextHoliday(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"holiday": h.calc.NextHoliday(h.now()),
	}))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
