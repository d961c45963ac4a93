package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUniverse_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")

	u, err := LoadUniverse(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultUniverse(), u)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadUniverse_Normalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	content := `watchlist: [aapl, " msft ", AAPL, ""]
closed_market_symbol: es=f
index_symbols: ["^gspc"]
extra_stats_symbols: [spy, aapl]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	u, err := LoadUniverse(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, u.Watchlist)
	assert.Equal(t, "ES=F", u.ClosedMarketSymbol)
	assert.Equal(t, []string{"AAPL", "MSFT", "ES=F", "^GSPC", "SPY"}, u.BackfillSymbols())
	assert.Equal(t, []string{"SPY", "AAPL"}, u.FundamentalsSymbols())
}

func TestLoadUniverse_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watchlist: [unclosed"), 0644))

	_, err := LoadUniverse(path)
	assert.Error(t, err)
}

func TestSaveUniverse_RoundTripsThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "universe.yaml")
	u := &Universe{Watchlist: []string{"TSLA"}, ClosedMarketSymbol: "NQ=F"}

	require.NoError(t, SaveUniverse(path, u))

	loaded, err := LoadUniverse(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA"}, loaded.Watchlist)
	assert.Equal(t, "NQ=F", loaded.ClosedMarketSymbol)
}

func TestUniverse_CloneIsIndependent(t *testing.T) {
	u := DefaultUniverse()
	c := u.Clone()
	c.Watchlist[0] = "ZZZ"
	assert.NotEqual(t, "ZZZ", u.Watchlist[0])
}

func TestUniverse_Validate(t *testing.T) {
	assert.Error(t, (&Universe{}).Validate())
	assert.NoError(t, DefaultUniverse().Validate())
}

func TestUniverse_SymbolGroups(t *testing.T) {
	u := &Universe{
		Watchlist:          []string{"AAPL", "MSFT"},
		ClosedMarketSymbol: "ES=F",
		IndexSymbols:       []string{"^GSPC"},
		AlwaysOpenSymbols:  []string{"BTC-USD", "ETH-USD"},
		ExtraStatsSymbols:  []string{"NVDA", "AAPL"},
	}

	assert.Equal(t, []string{"AAPL", "MSFT", "ES=F", "^GSPC", "BTC-USD", "ETH-USD", "NVDA"}, u.BackfillSymbols())
	assert.Equal(t, []string{"NVDA", "AAPL"}, u.FundamentalsSymbols())

	assert.Empty(t, (&Universe{Watchlist: []string{"AAPL"}}).FundamentalsSymbols())
	assert.Equal(t, []string{"AAPL"}, (&Universe{Watchlist: []string{"AAPL"}}).BackfillSymbols())
}
