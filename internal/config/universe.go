package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Universe is the set of symbols the service tracks.
type Universe struct {
	Watchlist          []string `yaml:"watchlist" json:"watchlist"`
	ClosedMarketSymbol string   `yaml:"closed_market_symbol" json:"closed_market_symbol"`
	IndexSymbols       []string `yaml:"index_symbols" json:"index_symbols"`
	AlwaysOpenSymbols  []string `yaml:"always_open_symbols" json:"always_open_symbols"`
	ExtraStatsSymbols  []string `yaml:"extra_stats_symbols" json:"extra_stats_symbols"`
}

// DefaultUniverse is written on first start when no universe file exists.
func DefaultUniverse() *Universe {
	return &Universe{
		Watchlist:          []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL"},
		ClosedMarketSymbol: "ES=F",
		IndexSymbols:       []string{"^GSPC", "^IXIC", "^DJI"},
		AlwaysOpenSymbols:  []string{"BTC-USD"},
		ExtraStatsSymbols:  []string{"SPY", "QQQ"},
	}
}

// LoadUniverse reads the universe file, creating it with defaults when absent.
func LoadUniverse(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		u := DefaultUniverse()
		if err := SaveUniverse(path, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}

	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file %s: %w", path, err)
	}
	u.normalize()
	return &u, nil
}

// SaveUniverse writes the universe file atomically.
func SaveUniverse(path string, u *Universe) error {
	data, err := yaml.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode universe: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create universe directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write universe file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace universe file: %w", err)
	}
	return nil
}

func (u *Universe) normalize() {
	u.Watchlist = dedupe(u.Watchlist)
	u.IndexSymbols = dedupe(u.IndexSymbols)
	u.AlwaysOpenSymbols = dedupe(u.AlwaysOpenSymbols)
	u.ExtraStatsSymbols = dedupe(u.ExtraStatsSymbols)
	u.ClosedMarketSymbol = strings.ToUpper(strings.TrimSpace(u.ClosedMarketSymbol))
}

// Validate rejects universes that cannot drive a quote refresh.
func (u *Universe) Validate() error {
	if len(u.Watchlist) == 0 {
		return errors.New("watchlist must contain at least one symbol")
	}
	return nil
}

// Clone returns a deep copy.
func (u *Universe) Clone() *Universe {
	return &Universe{
		Watchlist:          slices.Clone(u.Watchlist),
		ClosedMarketSymbol: u.ClosedMarketSymbol,
		IndexSymbols:       slices.Clone(u.IndexSymbols),
		AlwaysOpenSymbols:  slices.Clone(u.AlwaysOpenSymbols),
		ExtraStatsSymbols:  slices.Clone(u.ExtraStatsSymbols),
	}
}

// BackfillSymbols lists every configured symbol: watchlist, closed-market
// symbol, indexes, always-open instruments and extra-stats symbols.
func (u *Universe) BackfillSymbols() []string {
	all := make([]string, 0, len(u.Watchlist)+len(u.IndexSymbols)+len(u.AlwaysOpenSymbols)+len(u.ExtraStatsSymbols)+1)
	all = append(all, u.Watchlist...)
	all = append(all, u.ClosedMarketSymbol)
	all = append(all, u.IndexSymbols...)
	all = append(all, u.AlwaysOpenSymbols...)
	all = append(all, u.ExtraStatsSymbols...)
	return dedupe(all)
}

// FundamentalsSymbols lists the extra-stats symbols, the only ones that get
// forward P/E history.
func (u *Universe) FundamentalsSymbols() []string {
	return dedupe(u.ExtraStatsSymbols)
}

// NormalizeUniverse trims, upper-cases and de-duplicates every symbol list in place.
func NormalizeUniverse(u *Universe) {
	u.normalize()
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
