package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aristath/quotebar/internal/modules/market_hours"
)

// Quotes fetches quotes for symbols in a single request. Symbols without a
// price are omitted.
func (c *Client) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	if len(symbols) == 0 {
		return map[string]Quote{}, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	reqURL := c.chartURL + "/v7/finance/quote?" + params.Encode()

	var resp quoteResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch quotes: %w", err)
	}
	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo quote error: %v", resp.QuoteResponse.Error)
	}

	quotes := make(map[string]Quote, len(resp.QuoteResponse.Result))
	for _, raw := range resp.QuoteResponse.Result {
		if raw.RegularMarketPrice == nil {
			continue
		}
		quotes[raw.Symbol] = Quote{
			Symbol:          raw.Symbol,
			ShortName:       raw.ShortName,
			QuoteType:       raw.QuoteType,
			Price:           *raw.RegularMarketPrice,
			Change:          raw.RegularMarketChange,
			ChangePercent:   raw.RegularMarketChangePercent,
			PreviousClose:   raw.RegularMarketPreviousClose,
			MarketState:     raw.MarketState,
			PreMarketPrice:  raw.PreMarketPrice,
			PostMarketPrice: raw.PostMarketPrice,
		}
	}

	c.log.Debug().
		Int("requested", len(symbols)).
		Int("received", len(quotes)).
		Msg("Fetched quotes")

	return quotes, nil
}

// Quote fetches a single symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (Quote, error) {
	quotes, err := c.Quotes(ctx, []string{symbol})
	if err != nil {
		return Quote{}, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("quote for %s: %w", symbol, ErrNoData)
	}
	return q, nil
}

// MarketState reports the exchange state as seen through symbol's quote.
func (c *Client) MarketState(ctx context.Context, symbol string) (market_hours.TradingState, error) {
	q, err := c.Quote(ctx, symbol)
	if err != nil {
		return market_hours.Closed, err
	}
	return ParseMarketState(q.MarketState), nil
}
