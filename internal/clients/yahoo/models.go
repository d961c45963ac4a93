package yahoo

import (
	"strings"

	"github.com/aristath/quotebar/internal/modules/market_hours"
)

// Quote is a snapshot of one symbol from the quote endpoint.
type Quote struct {
	Symbol          string   `json:"symbol"`
	ShortName       string   `json:"shortName,omitempty"`
	QuoteType       string   `json:"quoteType,omitempty"`
	Price           float64  `json:"price"`
	Change          float64  `json:"change"`
	ChangePercent   float64  `json:"changePercent"`
	PreviousClose   float64  `json:"previousClose"`
	MarketState     string   `json:"marketState,omitempty"`
	PreMarketPrice  *float64 `json:"preMarketPrice,omitempty"`
	PostMarketPrice *float64 `json:"postMarketPrice,omitempty"`
}

// ParseMarketState maps Yahoo's marketState field to a trading state.
// Unknown values are treated as closed.
func ParseMarketState(s string) market_hours.TradingState {
	switch strings.ToUpper(s) {
	case "PRE":
		return market_hours.PreMarket
	case "REGULAR":
		return market_hours.Open
	case "POST", "POSTPOST":
		return market_hours.AfterHours
	default:
		return market_hours.Closed
	}
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []rawQuote `json:"result"`
		Error  any        `json:"error"`
	} `json:"quoteResponse"`
}

type rawQuote struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  string   `json:"shortName"`
	QuoteType                  string   `json:"quoteType"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64  `json:"regularMarketChange"`
	RegularMarketChangePercent float64  `json:"regularMarketChangePercent"`
	RegularMarketPreviousClose float64  `json:"regularMarketPreviousClose"`
	MarketState                string   `json:"marketState"`
	PreMarketPrice             *float64 `json:"preMarketPrice"`
	PostMarketPrice            *float64 `json:"postMarketPrice"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]any `json:"result"`
		Error  any              `json:"error"`
	} `json:"timeseries"`
}
