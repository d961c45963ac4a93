package cache

import (
	"github.com/aristath/quotebar/internal/storage"
	"github.com/rs/zerolog"
)

// YTDCache maps symbol to the prior year's final close. It is invalidated
// when the Eastern calendar year changes.
type YTDCache struct {
	*Manager[float64]
}

// NewYTDCache creates the year-to-date baseline cache.
func NewYTDCache(backend storage.Backend, codec storage.Codec, log zerolog.Logger) *YTDCache {
	store := newStore[float64](ytdDocument, backend, codec, log)
	return &YTDCache{NewManager(KindYTD, store, EpochRule{Kind: EpochYear}, nil, log)}
}
