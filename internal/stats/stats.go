// Package stats aggregates recorded work by logical day.
package stats

import (
	"fmt"
	"time"
)

// Store is the query the stats need.
type Store interface {
	GetWorkHoursForDay(day time.Time, offsetHours int) (float64, error)
}

// Day is the work done in one logical day.
type Day struct {
	Date  time.Time // local midnight of the calendar date the day is named after
	Hours float64
}

// Label is the short form used under chart bars.
func (d Day) Label() string {
	return d.Date.Format("Mon 02")
}

// LogicalDate returns the calendar date now belongs to when days start offsetHours
// after midnight. At 02:00 with a 4 hour offset it is still yesterday.
func LogicalDate(now time.Time, offsetHours int) time.Time {
	offset := ((offsetHours % 24) + 24) % 24
	shifted := now.Add(-time.Duration(offset) * time.Hour)
	y, m, d := shifted.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// LastWeek returns the logical today and the six days before it, newest first.
func LastWeek(s Store, now time.Time, offsetHours int) ([]Day, error) {
	return LastDays(s, now, offsetHours, 7)
}

// LastDays is LastWeek for an arbitrary number of days.
func LastDays(s Store, now time.Time, offsetHours, n int) ([]Day, error) {
	today := LogicalDate(now, offsetHours)
	days := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		date := today.AddDate(0, 0, -i)
		hours, err := s.GetWorkHoursForDay(date, offsetHours)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", date.Format("2006-01-02"), err)
		}
		days = append(days, Day{Date: date, Hours: hours})
	}
	return days, nil
}

// Total sums the hours of days.
func Total(days []Day) float64 {
	var sum float64
	for _, d := range days {
		sum += d.Hours
	}
	return sum
}
