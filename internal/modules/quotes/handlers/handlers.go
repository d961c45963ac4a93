// Package handlers provides HTTP handlers for the quote state.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/quotebar/internal/modules/quotes"
	"github.com/rs/zerolog"
)

// Refresher runs a quote refresh.
type Refresher interface {
	Refresh(ctx context.Context) (quotes.Plan, error)
}

// Handler handles quote HTTP requests
type Handler struct {
	state     *quotes.State
	refresher Refresher
	log       zerolog.Logger
}

// NewHandler creates a new quotes handler
func NewHandler(state *quotes.State, refresher Refresher, log zerolog.Logger) *Handler {
	return &Handler{
		state:     state,
		refresher: refresher,
		log:       log.With().Str("handler", "quotes").Logger(),
	}
}

// HandleGetQuotes handles GET /api/quotes
func (h *Handler) HandleGetQuotes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(h.state.Snapshot()))
}

// HandleGetQuote handles GET /api/quotes/{symbol}
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chiParam(r, "symbol")
	q, ok := h.state.Snapshot().Quotes[symbol]
	if !ok {
		h.writeError(w, http.StatusNotFound, "no quote for "+symbol)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(q))
}

// HandleRefresh handles POST /api/quotes/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	plan, err := h.refresher.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			h.writeError(w, http.StatusServiceUnavailable, "refresh cancelled")
			return
		}
		h.log.Error().Err(err).Msg("Quote refresh failed")
		h.writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"plan":  plan,
		"state": h.state.Snapshot(),
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

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
