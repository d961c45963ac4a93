package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/quotebar/internal/cache"
	"github.com/aristath/quotebar/internal/clients/finnhub"
	"github.com/aristath/quotebar/internal/clients/yahoo"
	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/events"
	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/aristath/quotebar/internal/modules/marketdata"
	"github.com/aristath/quotebar/internal/modules/quotes"
	"github.com/aristath/quotebar/internal/reliability"
	"github.com/aristath/quotebar/internal/work"
)

// InitializeServices creates clients, caches and the services built on them
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	universe, err := config.OpenUniverseStore(cfg.UniverseFile)
	if err != nil {
		return fmt.Errorf("failed to load universe: %w", err)
	}
	container.Universe = universe

	container.EventBus = events.NewBus(log)
	container.MarketHours = market_hours.NewSessionCalculator()

	container.Caches = cache.New(container.Backend, container.Codec, cache.Options{
		HighestCloseDailyRefresh: cfg.HighestCloseDailyRefresh,
		SwingDailyRefresh:        cfg.SwingDailyRefresh,
	}, log)
	container.Caches.LoadAll()

	container.Yahoo = yahoo.NewClient(container.MarketHours, yahoo.Options{}, log)
	container.Finnhub = finnhub.NewClient(cfg.FinnhubKey, log)
	if !container.Finnhub.Enabled() {
		log.Info().Msg("Finnhub key not configured, candle fallback disabled")
	}

	container.MarketData = marketdata.NewService(container.Yahoo, container.Finnhub, log)

	container.QuoteState = quotes.NewState()
	container.Coordinator = quotes.NewCoordinator(
		container.Yahoo,
		container.MarketHours,
		container.Universe.Get,
		container.QuoteState,
		container.EventBus,
		log,
	)

	opts := work.DefaultBackfillOptions()
	opts.RequestContext = yahoo.WithoutRetry
	container.Backfiller = work.NewBackfiller(container.MarketData, container.Caches, container.EventBus, opts, log)

	if cfg.R2.Enabled() {
		r2, err := reliability.NewR2Client(ctx, cfg.R2, log)
		if err != nil {
			log.Warn().Err(err).Msg("R2 backups disabled")
		} else {
			container.Backup = reliability.NewR2BackupService(r2, cfg.DataDir, container.CacheDB, log)
		}
	}

	return nil
}
