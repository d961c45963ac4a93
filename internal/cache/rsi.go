package cache

import (
	"github.com/aristath/quotebar/internal/storage"
	"github.com/rs/zerolog"
)

// RSICache maps symbol to its daily RSI(14).
type RSICache struct {
	*Manager[float64]
}

// NewRSICache creates the RSI cache, invalidated daily.
func NewRSICache(backend storage.Backend, codec storage.Codec, log zerolog.Logger) *RSICache {
	store := newStore[float64](rsiDocument, backend, codec, log)
	return &RSICache{NewManager(KindRSI, store, EpochRule{Kind: EpochDaily}, nil, log)}
}
