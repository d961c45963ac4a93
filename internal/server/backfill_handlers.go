package server

import "net/http"

// handleBackfillStatus handles GET /api/backfill
func (s *Server) handleBackfillStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, envelope(s.cfg.Backfill.Status()))
}

// handleBackfillRestart handles POST /api/backfill/restart
func (s *Server) handleBackfillRestart(w http.ResponseWriter, r *http.Request) {
	runID := s.cfg.Backfill.Start(s.cfg.Universe.Get())
	s.log.Info().Str("run_id", runID).Msg("Backfill restarted via API")
	s.writeJSON(w, http.StatusAccepted, envelope(map[string]string{"runId": runID}))
}

// handleBackfillStop handles POST /api/backfill/stop
func (s *Server) handleBackfillStop(w http.ResponseWriter, r *http.Request) {
	s.cfg.Backfill.Stop()
	s.writeJSON(w, http.StatusOK, envelope(s.cfg.Backfill.Status()))
}
