// Package di wires the application's dependencies.
package di

import (
	"github.com/aristath/quotebar/internal/cache"
	"github.com/aristath/quotebar/internal/clients/finnhub"
	"github.com/aristath/quotebar/internal/clients/yahoo"
	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/database"
	"github.com/aristath/quotebar/internal/events"
	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/aristath/quotebar/internal/modules/marketdata"
	"github.com/aristath/quotebar/internal/modules/quotes"
	"github.com/aristath/quotebar/internal/reliability"
	"github.com/aristath/quotebar/internal/storage"
	"github.com/aristath/quotebar/internal/work"
)

// Container holds all dependencies for the application
type Container struct {
	// Storage
	CacheDB *database.DB // nil with the file backend
	Backend storage.Backend
	Codec   storage.Codec
	Caches  *cache.Caches

	// Clients
	Yahoo   *yahoo.Client
	Finnhub *finnhub.Client

	// Services
	Universe    *config.UniverseStore
	EventBus    *events.Bus
	MarketHours *market_hours.SessionCalculator
	MarketData  *marketdata.Service
	QuoteState  *quotes.State
	Coordinator *quotes.Coordinator
	Backfiller  *work.Backfiller
	Backup      *reliability.R2BackupService // nil unless R2 is configured
}

// Close releases resources held by the container
func (c *Container) Close() error {
	if c.CacheDB != nil {
		return c.CacheDB.Close()
	}
	return nil
}
