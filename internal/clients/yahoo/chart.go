package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/aristath/quotebar/pkg/formulas"
)

// Chart intervals.
const (
	IntervalDay   = "1d"
	IntervalWeek  = "1wk"
	IntervalMonth = "1mo"
)

// ChartQuery selects a close series. Either Range or From/To is used; To is
// exclusive.
type ChartQuery struct {
	Interval string
	Range    string
	From     time.Time
	To       time.Time
}

// Closes fetches a close series for symbol, oldest first. Null closes are
// dropped.
func (c *Client) Closes(ctx context.Context, symbol string, q ChartQuery) ([]formulas.PricePoint, error) {
	params := url.Values{}
	params.Set("interval", q.Interval)
	params.Set("includePrePost", "false")
	if q.Range != "" {
		params.Set("range", q.Range)
	} else {
		params.Set("period1", strconv.FormatInt(q.From.Unix(), 10))
		params.Set("period2", strconv.FormatInt(q.To.Unix(), 10))
	}
	reqURL := c.chartURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	var resp chartResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %v", symbol, resp.Chart.Error)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart for %s: %w", symbol, ErrNoData)
	}

	result := resp.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	points := make([]formulas.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, formulas.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("chart for %s: %w", symbol, ErrNoData)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("interval", q.Interval).
		Int("count", len(points)).
		Msg("Fetched closes")

	return points, nil
}
