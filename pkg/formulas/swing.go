package formulas

import "time"

// SwingThreshold is the reversal, as a fraction, that confirms a swing extreme.
const SwingThreshold = 0.10

// SwingLevel is a confirmed swing extreme.
type SwingLevel struct {
	Price float64   `json:"price"`
	Date  time.Time `json:"date"`
}

// SwingAnalysis holds the breakout and breakdown levels of a price series.
// Either level may be nil when no qualifying extreme was found.
type SwingAnalysis struct {
	Breakout  *SwingLevel `json:"breakout,omitempty"`
	Breakdown *SwingLevel `json:"breakdown,omitempty"`
}

// AnalyzeSwings makes a single pass over points tracking a running maximum and
// minimum. A significant high is recorded, and the running maximum reset, when
// price falls SwingThreshold below the running maximum; a significant low is
// recorded, and the running minimum reset, on a SwingThreshold rise from the
// running minimum. A trailing minimum that sits SwingThreshold below the last
// significant high also counts as a significant low.
//
// Breakout is the highest significant high. Breakdown is the highest-priced
// significant low, the nearest floor beneath current trading rather than the
// deepest drawdown. Empty input yields nil.
func AnalyzeSwings(points []PricePoint) *SwingAnalysis {
	if len(points) == 0 {
		return nil
	}

	var highs, lows []SwingLevel

	runMax := SwingLevel{Price: points[0].Close, Date: points[0].Date}
	runMin := runMax

	for _, p := range points[1:] {
		if p.Close > runMax.Price {
			runMax = SwingLevel{Price: p.Close, Date: p.Date}
		}
		if p.Close < runMin.Price {
			runMin = SwingLevel{Price: p.Close, Date: p.Date}
		}

		if runMax.Price > 0 && (runMax.Price-p.Close)/runMax.Price >= SwingThreshold {
			highs = append(highs, runMax)
			runMax = SwingLevel{Price: p.Close, Date: p.Date}
		}
		if runMin.Price > 0 && (p.Close-runMin.Price)/runMin.Price >= SwingThreshold {
			lows = append(lows, runMin)
			runMin = SwingLevel{Price: p.Close, Date: p.Date}
		}
	}

	if len(highs) > 0 {
		lastHigh := highs[len(highs)-1]
		if runMin.Date.After(lastHigh.Date) && (lastHigh.Price-runMin.Price)/lastHigh.Price >= SwingThreshold {
			lows = append(lows, runMin)
		}
	}

	result := &SwingAnalysis{}
	for i := range highs {
		if result.Breakout == nil || highs[i].Price > result.Breakout.Price {
			h := highs[i]
			result.Breakout = &h
		}
	}
	for i := range lows {
		if result.Breakdown == nil || lows[i].Price > result.Breakdown.Price {
			l := lows[i]
			result.Breakdown = &l
		}
	}
	return result
}
