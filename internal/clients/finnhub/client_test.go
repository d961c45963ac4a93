package finnhub

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestClient_DisabledWithoutKey(t *testing.T) {
	c := NewClient("", testLogger())

	assert.False(t, c.Enabled())
	_, err := c.DailyCloses(context.Background(), "AAPL", time.Now().AddDate(0, 0, -7), time.Now())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestClient_DailyCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Finnhub-Token"))
		assert.Equal(t, "/stock/candle", r.URL.Path)
		assert.Equal(t, "D", r.URL.Query().Get("resolution"))
		fmt.Fprint(w, `{"c":[250.1,251.2],"t":[1767052800,1767139200],"s":"ok"}`)
	}))
	defer srv.Close()

	c := NewClient("secret", testLogger()).WithBaseURL(srv.URL)
	points, err := c.DailyCloses(context.Background(), "AAPL", time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 251.2, points[1].Close)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), points[1].Date)
}

func TestClient_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"no_data"}`)
	}))
	defer srv.Close()

	c := NewClient("secret", testLogger()).WithBaseURL(srv.URL)
	_, err := c.DailyCloses(context.Background(), "ZZZZ", time.Now().AddDate(0, 0, -7), time.Now())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("secret", testLogger()).WithBaseURL(srv.URL)
	_, err := c.DailyCloses(context.Background(), "AAPL", time.Now().AddDate(0, 0, -7), time.Now())
	assert.Error(t, err)
}
