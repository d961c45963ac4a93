package formulas

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PricePoint is a dated close.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// Closes extracts the close prices of points, preserving order.
func Closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

// Mean returns the arithmetic mean of values (0 for empty input).
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// HighestClose returns the maximum close, or nil for empty input.
func HighestClose(points []PricePoint) *float64 {
	if len(points) == 0 {
		return nil
	}
	highest := floats.Max(Closes(points))
	return &highest
}

// LastCloseOnOrBefore returns the latest close dated no later than cutoff.
// Points need not be sorted.
func LastCloseOnOrBefore(points []PricePoint, cutoff time.Time) *float64 {
	best := -1
	for i, p := range points {
		if p.Date.After(cutoff) {
			continue
		}
		if best < 0 || p.Date.After(points[best].Date) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	v := points[best].Close
	return &v
}
