package cache

import (
	"errors"
	"maps"
	"sort"
	"time"

	"github.com/aristath/quotebar/internal/storage"
	"github.com/aristath/quotebar/pkg/formulas"
	"github.com/rs/zerolog"
)

// Cache kind names, as exposed by the API.
const (
	KindYTD          = "ytd"
	KindQuarterly    = "quarterly"
	KindHighestClose = "highest-close"
	KindForwardPE    = "forward-pe"
	KindSwing        = "swing"
	KindRSI          = "rsi"
	KindEMA          = "ema"
)

// Persisted document names, one per kind.
const (
	ytdDocument          = "ytd_prices"
	quarterlyDocument    = "quarterly_prices"
	highestCloseDocument = "highest_close"
	forwardPEDocument    = "forward_pe"
	swingDocument        = "swing_levels"
	rsiDocument          = "rsi"
	emaDocument          = "ema"
)

// Kind is the type-independent view of a cache manager.
type Kind interface {
	Name() string
	Load()
	Save() error
	Clear()
	InvalidateIfNeeded() bool
	Len() int
	Epoch() string
	LastUpdated() time.Time
	SnapshotAny() any
	SetClock(now func() time.Time)
}

// Options tunes the optional daily refresh of quarter-range caches.
type Options struct {
	HighestCloseDailyRefresh bool
	SwingDailyRefresh        bool
}

// Caches groups the seven market statistic caches.
type Caches struct {
	YTD          *YTDCache
	Quarterly    *QuarterlyCache
	HighestClose *HighestCloseCache
	ForwardPE    *ForwardPECache
	Swing        *SwingCache
	RSI          *RSICache
	EMA          *EMACache

	now func() time.Time
	log zerolog.Logger
}

// New creates every cache on top of one backend and codec. Nothing is read
// until LoadAll.
func New(backend storage.Backend, codec storage.Codec, opts Options, log zerolog.Logger) *Caches {
	return &Caches{
		YTD:          NewYTDCache(backend, codec, log),
		Quarterly:    NewQuarterlyCache(backend, codec, log),
		HighestClose: NewHighestCloseCache(backend, codec, opts.HighestCloseDailyRefresh, log),
		ForwardPE:    NewForwardPECache(backend, codec, log),
		Swing:        NewSwingCache(backend, codec, opts.SwingDailyRefresh, log),
		RSI:          NewRSICache(backend, codec, log),
		EMA:          NewEMACache(backend, codec, log),
		now:          time.Now,
		log:          log.With().Str("component", "caches").Logger(),
	}
}

// All returns every cache in a fixed order.
func (c *Caches) All() []Kind {
	return []Kind{c.YTD, c.Quarterly, c.HighestClose, c.ForwardPE, c.Swing, c.RSI, c.EMA}
}

// ByName looks a cache up by kind name.
func (c *Caches) ByName(name string) (Kind, bool) {
	for _, k := range c.All() {
		if k.Name() == name {
			return k, true
		}
	}
	return nil, false
}

// Names returns the kind names, sorted.
func (c *Caches) Names() []string {
	names := make([]string, 0, 7)
	for _, k := range c.All() {
		names = append(names, k.Name())
	}
	sort.Strings(names)
	return names
}

// SetClock replaces the clock of every cache.
func (c *Caches) SetClock(now func() time.Time) {
	c.now = now
	for _, k := range c.All() {
		k.SetClock(now)
	}
}

// LoadAll loads every cache from storage.
func (c *Caches) LoadAll() {
	for _, k := range c.All() {
		k.Load()
	}
}

// SaveAll saves every dirty cache, returning all failures joined.
func (c *Caches) SaveAll() error {
	var errs []error
	for _, k := range c.All() {
		if err := k.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InvalidateStale clears caches whose epoch has changed and prunes quarters
// that left the backfill window. Changed caches are saved. Returns the names
// of the caches that changed.
func (c *Caches) InvalidateStale() []string {
	changed := make([]string, 0)
	for _, k := range c.All() {
		if k.InvalidateIfNeeded() {
			changed = append(changed, k.Name())
		}
	}

	active := formulas.QuarterIDs(formulas.LastNCompletedQuarters(c.now(), formulas.BackfillQuarters))
	if pruned := c.Quarterly.Prune(active); pruned > 0 {
		changed = append(changed, c.Quarterly.Name())
	}

	if len(changed) > 0 {
		c.log.Info().Strs("caches", changed).Msg("Invalidated stale caches")
		if err := c.SaveAll(); err != nil {
			c.log.Warn().Err(err).Msg("Failed to save invalidated caches")
		}
	}
	return changed
}

// ClearAll drops every entry of every cache and saves the empty envelopes.
func (c *Caches) ClearAll() error {
	for _, k := range c.All() {
		k.Clear()
	}
	return c.SaveAll()
}

func cloneFloatMap(v map[string]float64) map[string]float64 {
	if v == nil {
		return map[string]float64{}
	}
	return maps.Clone(v)
}

func newStore[V any](document string, backend storage.Backend, codec storage.Codec, log zerolog.Logger) *storage.Store[Envelope[V]] {
	return storage.New[Envelope[V]](document, backend, codec, log)
}
