package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/quotebar/internal/clients/yahoo"
	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/aristath/quotebar/internal/modules/quotes"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	calls int
	err   error
}

func (s *stubRefresher) Refresh(context.Context) (quotes.Plan, error) {
	s.calls++
	return quotes.Plan{Kind: quotes.PlanRegular}, s.err
}

func newRouter(state *quotes.State, refresher Refresher) chi.Router {
	h := NewHandler(state, refresher, zerolog.New(nil).Level(zerolog.Disabled))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func seededState() *quotes.State {
	state := quotes.NewState()
	closed := market_hours.Closed
	state.Apply(quotes.Plan{Kind: quotes.PlanInitial, CompletesInitialLoad: true}, quotes.Result{
		Quotes:      map[string]yahoo.Quote{"AAPL": {Symbol: "AAPL", Price: 190.5}},
		MarketState: &closed,
	}, time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	return state
}

func TestHandleGetQuotes(t *testing.T) {
	r := newRouter(seededState(), &stubRefresher{})

	req := httptest.NewRequest("GET", "/quotes/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data quotes.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 190.5, body.Data.Quotes["AAPL"].Price)
	assert.True(t, body.Data.InitialLoad)
}

func TestHandleGetQuote(t *testing.T) {
	r := newRouter(seededState(), &stubRefresher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/quotes/aapl", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/quotes/MSFT", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleRefresh(t *testing.T) {
	refresher := &stubRefresher{}
	r := newRouter(seededState(), refresher)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/quotes/refresh", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, refresher.calls)
	assert.Contains(t, w.Body.String(), `"kind":"regular"`)
}

func TestHandleRefreshCancelled(t *testing.T) {
	r := newRouter(seededState(), &stubRefresher{err: context.Canceled})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/quotes/refresh", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
