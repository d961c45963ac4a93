package formulas

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DisplayQuarters is the number of completed quarters shown and used for
	// the rolling quarter range (three years).
	DisplayQuarters = 12
	// BackfillQuarters adds one reference quarter for quarter-over-quarter change.
	BackfillQuarters = DisplayQuarters + 1

	quarterWindowBefore = 5
	quarterWindowAfter  = 2
)

// Quarter is a calendar quarter. Number is 1-4.
type Quarter struct {
	Year   int
	Number int
}

// QuarterIdentifier formats the stable identifier "Q{n}-{year}".
func QuarterIdentifier(year, quarter int) string {
	return fmt.Sprintf("Q%d-%d", quarter, year)
}

// QuarterOf returns the quarter containing t's calendar date in t's location.
func QuarterOf(t time.Time) Quarter {
	return Quarter{Year: t.Year(), Number: (int(t.Month())-1)/3 + 1}
}

// ParseQuarter parses an identifier produced by ID.
func ParseQuarter(id string) (Quarter, error) {
	var q Quarter
	if !strings.HasPrefix(id, "Q") {
		return q, fmt.Errorf("invalid quarter id %q", id)
	}
	if _, err := fmt.Sscanf(id, "Q%d-%d", &q.Number, &q.Year); err != nil {
		return Quarter{}, fmt.Errorf("invalid quarter id %q: %w", id, err)
	}
	if q.Number < 1 || q.Number > 4 {
		return Quarter{}, fmt.Errorf("invalid quarter number in %q", id)
	}
	return q, nil
}

// ID returns the stable identifier, e.g. "Q4-2025".
func (q Quarter) ID() string {
	return QuarterIdentifier(q.Year, q.Number)
}

// Prev returns the preceding quarter.
func (q Quarter) Prev() Quarter {
	if q.Number == 1 {
		return Quarter{Year: q.Year - 1, Number: 4}
	}
	return Quarter{Year: q.Year, Number: q.Number - 1}
}

// Start returns midnight UTC of the first day of the quarter.
func (q Quarter) Start() time.Time {
	return time.Date(q.Year, time.Month((q.Number-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// End returns midnight UTC of the last calendar day of the quarter.
func (q Quarter) End() time.Time {
	return q.Start().AddDate(0, 3, -1)
}

// QueryWindow spans five days before to two days after quarter end, so a
// quarter ending on a weekend or holiday still contains its final close.
// The returned end is exclusive.
func (q Quarter) QueryWindow() (from, to time.Time) {
	end := q.End()
	return end.AddDate(0, 0, -quarterWindowBefore), end.AddDate(0, 0, quarterWindowAfter+1)
}

// LastNCompletedQuarters returns the n most recent quarters whose last
// calendar day has passed as of now, newest first. The quarter containing
// now is never included.
func LastNCompletedQuarters(now time.Time, n int) []Quarter {
	quarters := make([]Quarter, 0, n)
	q := QuarterOf(now)
	for i := 0; i < n; i++ {
		q = q.Prev()
		quarters = append(quarters, q)
	}
	return quarters
}

// QuarterIDs maps quarters to their identifiers, preserving order.
func QuarterIDs(quarters []Quarter) []string {
	ids := make([]string, len(quarters))
	for i, q := range quarters {
		ids[i] = q.ID()
	}
	return ids
}

// QuarterRangeID identifies the rolling range of the last n completed
// quarters as "oldest_newest". It changes the day a new quarter completes.
func QuarterRangeID(now time.Time, n int) string {
	quarters := LastNCompletedQuarters(now, n)
	if len(quarters) == 0 {
		return ""
	}
	return quarters[len(quarters)-1].ID() + "_" + quarters[0].ID()
}
