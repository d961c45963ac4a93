package cache

import (
	"github.com/aristath/quotebar/internal/storage"
	"github.com/rs/zerolog"
)

// HighestCloseCache maps symbol to the highest close over the rolling
// quarter range.
type HighestCloseCache struct {
	*Manager[float64]
}

// NewHighestCloseCache creates the highest-close cache. With dailyRefresh the
// cache is also rebuilt every day so a new high shows up the next morning.
func NewHighestCloseCache(backend storage.Backend, codec storage.Codec, dailyRefresh bool, log zerolog.Logger) *HighestCloseCache {
	store := newStore[float64](highestCloseDocument, backend, codec, log)
	rule := EpochRule{Kind: EpochQuarterRange, DailyRefresh: dailyRefresh}
	return &HighestCloseCache{NewManager(KindHighestClose, store, rule, nil, log)}
}
