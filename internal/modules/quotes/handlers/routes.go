package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all quote routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", h.HandleGetQuotes)
		r.Post("/refresh", h.HandleRefresh)
		r.Get("/{symbol}", h.HandleGetQuote)
	})
}

func chiParam(r *http.Request, name string) string {
	return strings.ToUpper(chi.URLParam(r, name))
}
