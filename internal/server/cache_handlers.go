package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/quotebar/internal/cache"
	"github.com/aristath/quotebar/internal/events"
	"github.com/aristath/quotebar/pkg/formulas"
)

type cacheSummary struct {
	Name        string     `json:"name"`
	Epoch       string     `json:"epoch,omitempty"`
	Entries     int        `json:"entries"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

func summarize(k cache.Kind) cacheSummary {
	summary := cacheSummary{Name: k.Name(), Epoch: k.Epoch(), Entries: k.Len()}
	if ts := k.LastUpdated(); !ts.IsZero() {
		summary.LastUpdated = &ts
	}
	return summary
}

// handleListCaches handles GET /api/caches
func (s *Server) handleListCaches(w http.ResponseWriter, r *http.Request) {
	kinds := s.cfg.Caches.All()
	summaries := make([]cacheSummary, 0, len(kinds))
	for _, k := range kinds {
		summaries = append(summaries, summarize(k))
	}
	s.writeJSON(w, http.StatusOK, envelope(summaries))
}

// handleGetCache handles GET /api/caches/{kind}
func (s *Server) handleGetCache(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "kind")
	k, ok := s.cfg.Caches.ByName(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown cache "+name)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"summary": summarize(k),
		"entries": k.SnapshotAny(),
	}))
}

// handleGetQuarterlyPrice handles GET /api/caches/quarterly/{quarter}/{symbol}
func (s *Server) handleGetQuarterlyPrice(w http.ResponseWriter, r *http.Request) {
	quarter, symbol, ok := s.quarterParams(w, r)
	if !ok {
		return
	}

	price, ok := s.cfg.Caches.Quarterly.Price(quarter.ID(), symbol)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no "+quarter.ID()+" close for "+symbol)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"quarter": quarter.ID(),
		"symbol":  symbol,
		"price":   price,
	}))
}

// handleGetForwardPE handles GET /api/caches/forward-pe/{symbol}/{quarter}
func (s *Server) handleGetForwardPE(w http.ResponseWriter, r *http.Request) {
	quarter, symbol, ok := s.quarterParams(w, r)
	if !ok {
		return
	}

	ratio, ok := s.cfg.Caches.ForwardPE.Ratio(symbol, quarter.ID())
	if !ok {
		s.writeError(w, http.StatusNotFound, "no "+quarter.ID()+" forward P/E for "+symbol)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"quarter":   quarter.ID(),
		"symbol":    symbol,
		"forwardPE": ratio,
	}))
}

func (s *Server) quarterParams(w http.ResponseWriter, r *http.Request) (formulas.Quarter, string, bool) {
	quarter, err := formulas.ParseQuarter(strings.ToUpper(chi.URLParam(r, "quarter")))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return formulas.Quarter{}, "", false
	}
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return formulas.Quarter{}, "", false
	}
	return quarter, symbol, true
}

// handleClearCaches handles DELETE /api/caches. The running backfill is
// cancelled and drained first so none of its writes land after the clear.
// Entries are dropped in memory even when the empty documents cannot be written.
func (s *Server) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	s.cfg.Backfill.Stop()
	waitCtx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := s.cfg.Backfill.Wait(waitCtx); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "backfill did not stop: "+err.Error())
		return
	}

	saved := true
	if err := s.cfg.Caches.ClearAll(); err != nil {
		saved = false
		s.log.Warn().Err(err).Msg("Failed to persist cleared caches")
	}

	runID := s.cfg.Backfill.Start(s.cfg.Universe.Get())

	data := &events.CachesClearedData{
		Caches:    s.cfg.Caches.Names(),
		RunID:     runID,
		Restarted: true,
	}
	s.emit(events.CachesCleared, data)

	s.log.Info().Str("run_id", runID).Bool("saved", saved).Msg("Caches cleared")
	s.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"cleared": data.Caches,
		"runId":   runID,
		"saved":   saved,
	}))
}

func (s *Server) emit(eventType events.EventType, data any) {
	if s.cfg.Bus != nil {
		s.cfg.Bus.Publish(eventType, data)
	}
}
