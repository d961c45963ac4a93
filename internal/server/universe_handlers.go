package server

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/events"
)

const maxUniverseBody = 64 << 10

// handleGetUniverse handles GET /api/universe
func (s *Server) handleGetUniverse(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, envelope(s.cfg.Universe.Get()))
}

// handlePutUniverse handles PUT /api/universe. A saved universe restarts the
// backfill so new symbols are filled.
func (s *Server) handlePutUniverse(w http.ResponseWriter, r *http.Request) {
	var u config.Universe
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUniverseBody)).Decode(&u); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	config.NormalizeUniverse(&u)
	if err := u.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.cfg.Universe.Replace(&u)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to save universe")
		s.writeError(w, http.StatusInternalServerError, "failed to save universe")
		return
	}

	runID := s.cfg.Backfill.Start(saved)
	s.emit(events.UniverseChanged, &events.UniverseChangedData{
		Watchlist: saved.Watchlist,
		Symbols:   len(saved.BackfillSymbols()),
		RunID:     runID,
	})

	s.log.Info().Int("watchlist", len(saved.Watchlist)).Str("run_id", runID).Msg("Universe updated")
	s.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"universe": saved,
		"runId":    runID,
	}))
}
