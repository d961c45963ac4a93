package cache

import (
	"github.com/aristath/quotebar/internal/storage"
	"github.com/aristath/quotebar/pkg/formulas"
	"github.com/rs/zerolog"
)

// SwingCache maps symbol to its breakout and breakdown levels.
type SwingCache struct {
	*Manager[formulas.SwingAnalysis]
}

// NewSwingCache creates the swing-level cache, keyed to the rolling quarter
// range and optionally refreshed daily.
func NewSwingCache(backend storage.Backend, codec storage.Codec, dailyRefresh bool, log zerolog.Logger) *SwingCache {
	store := newStore[formulas.SwingAnalysis](swingDocument, backend, codec, log)
	rule := EpochRule{Kind: EpochQuarterRange, DailyRefresh: dailyRefresh}
	return &SwingCache{NewManager(KindSwing, store, rule, cloneSwing, log)}
}

func cloneSwing(v formulas.SwingAnalysis) formulas.SwingAnalysis {
	out := formulas.SwingAnalysis{}
	if v.Breakout != nil {
		b := *v.Breakout
		out.Breakout = &b
	}
	if v.Breakdown != nil {
		b := *v.Breakdown
		out.Breakdown = &b
	}
	return out
}
