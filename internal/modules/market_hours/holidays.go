package market_hours

import (
	"sort"
	"time"
)

// CalculateEaster returns Easter Sunday (Gregorian computus) at midnight Eastern.
func CalculateEaster(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, Eastern)
}

// CalculateGoodFriday returns the Friday before Easter
func CalculateGoodFriday(year int) time.Time {
	return CalculateEaster(year).AddDate(0, 0, -2)
}

// findNthWeekday finds the nth occurrence of a weekday in a month (n >= 1)
func findNthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	date := time.Date(year, month, 1, 0, 0, 0, 0, Eastern)
	offset := int(weekday - date.Weekday())
	if offset < 0 {
		offset += 7
	}
	return date.AddDate(0, 0, offset+(n-1)*7)
}

// findLastWeekday finds the last occurrence of a weekday in a month
func findLastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	date := time.Date(year, month+1, 0, 0, 0, 0, 0, Eastern)
	offset := int(date.Weekday() - weekday)
	if offset < 0 {
		offset += 7
	}
	return date.AddDate(0, 0, -offset)
}

// observeOnWeekday moves a weekend date to the observed weekday:
// Saturday -> preceding Friday, Sunday -> following Monday
func observeOnWeekday(date time.Time) time.Time {
	switch date.Weekday() {
	case time.Saturday:
		return date.AddDate(0, 0, -1)
	case time.Sunday:
		return date.AddDate(0, 0, 1)
	default:
		return date
	}
}

// earlyCloses returns the half-day sessions of a year
func earlyCloses(year int) []Holiday {
	closes := make([]Holiday, 0, 2)

	// July 4 on Tue-Fri shortens July 3; Monday or weekend July 4ths do not.
	july4 := time.Date(year, time.July, 4, 0, 0, 0, 0, Eastern)
	if wd := july4.Weekday(); wd >= time.Tuesday && wd <= time.Friday {
		closes = append(closes, Holiday{
			Name:       "Independence Day Eve",
			Date:       july4.AddDate(0, 0, -1),
			EarlyClose: true,
		})
	}

	// A Friday Christmas Eve before a Saturday Christmas is the observed holiday instead.
	christmasEve := time.Date(year, time.December, 24, 0, 0, 0, 0, Eastern)
	christmas := christmasEve.AddDate(0, 0, 1)
	if wd := christmasEve.Weekday(); wd >= time.Monday && wd <= time.Friday && christmas.Weekday() != time.Saturday {
		closes = append(closes, Holiday{
			Name:       "Christmas Eve",
			Date:       christmasEve,
			EarlyClose: true,
		})
	}

	return closes
}

// CalculateUSHolidays calculates all US market holidays and early closes for a year, sorted by date.
// An observed New Year's Day can fall on December 31 of the previous year.
func CalculateUSHolidays(year int) []Holiday {
	holidays := make([]Holiday, 0, 12)

	for _, h := range fixedDateHolidays {
		date := time.Date(year, h.Month, h.Day, 0, 0, 0, 0, Eastern)
		holidays = append(holidays, Holiday{Name: h.Name, Date: observeOnWeekday(date)})
	}

	for _, h := range ruleBasedHolidays {
		var date time.Time
		if h.N == -1 {
			date = findLastWeekday(year, h.Month, h.Weekday)
		} else {
			date = findNthWeekday(year, h.Month, h.Weekday, h.N)
		}
		holidays = append(holidays, Holiday{Name: h.Name, Date: date})
	}

	holidays = append(holidays, Holiday{Name: "Good Friday", Date: CalculateGoodFriday(year)})
	holidays = append(holidays, earlyCloses(year)...)

	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})

	return holidays
}
