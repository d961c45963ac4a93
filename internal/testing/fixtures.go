package testing

import "github.com/aristath/quotebar/internal/config"

// Universe returns a small universe covering every symbol group.
func Universe() *config.Universe {
	return &config.Universe{
		Watchlist:          []string{"AAPL", "MSFT"},
		ClosedMarketSymbol: "ES=F",
		IndexSymbols:       []string{"^GSPC"},
		AlwaysOpenSymbols:  []string{"BTC-USD"},
		ExtraStatsSymbols:  []string{"SPY", "AAPL"},
	}
}
