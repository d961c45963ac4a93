package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/aristath/quotebar/pkg/formulas"
)

const forwardPEType = "quarterlyForwardPeRatio"

// ForwardPE fetches quarterly forward P/E ratios reported between from and
// to, keyed by quarter id. A symbol with no fundamentals yields an empty map
// and no error.
func (c *Client) ForwardPE(ctx context.Context, symbol string, from, to time.Time) (map[string]float64, error) {
	params := url.Values{}
	params.Set("type", forwardPEType)
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	reqURL := c.timeseriesURL + "/ws/fundamentals-timeseries/v1/finance/timeseries/" + url.PathEscape(symbol) + "?" + params.Encode()

	var resp timeseriesResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch forward P/E for %s: %w", symbol, err)
	}
	if resp.Timeseries.Error != nil {
		return nil, fmt.Errorf("yahoo timeseries error for %s: %v", symbol, resp.Timeseries.Error)
	}

	ratios := make(map[string]float64)
	for _, result := range resp.Timeseries.Result {
		series, ok := result[forwardPEType].([]any)
		if !ok {
			continue
		}
		for _, item := range series {
			id, value, ok := parseForwardPE(item)
			if ok {
				ratios[id] = value
			}
		}
	}
	return ratios, nil
}

// parseForwardPE reads {"asOfDate": "2025-09-30", "reportedValue": {"raw": 31.2}}.
func parseForwardPE(item any) (string, float64, bool) {
	entry, ok := item.(map[string]any)
	if !ok {
		return "", 0, false
	}
	asOf, ok := entry["asOfDate"].(string)
	if !ok {
		return "", 0, false
	}
	date, err := time.Parse("2006-01-02", asOf)
	if err != nil {
		return "", 0, false
	}
	reported, ok := entry["reportedValue"].(map[string]any)
	if !ok {
		return "", 0, false
	}
	raw, ok := reported["raw"].(float64)
	if !ok {
		return "", 0, false
	}
	return formulas.QuarterOf(date).ID(), raw, true
}
