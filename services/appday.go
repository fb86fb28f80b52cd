package services

import (
	"time"
)

// AppDayIndex maps an absolute timestamp to its 1-based program day index.
// Day 1 is the calendar day containing startDate; day 2 is the next calendar
// day, independent of time of day. Timestamps before the start day yield 0.
// Calendar days are counted in UTC-normalized date space so DST transitions
// cannot shift the index.
func AppDayIndex(at, startDate time.Time) int {
	sy, sm, sd := startDate.Date()
	ay, am, ad := at.Date()
	start := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	day := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	if day.Before(start) {
		return 0
	}
	return int(day.Sub(start)/(24*time.Hour)) + 1
}

// DayForIndex returns the calendar day (start of day) for a 1-based app day
// index relative to startDate.
func DayForIndex(index int, startDate time.Time) time.Time {
	return StartOfDay(startDate).AddDate(0, 0, index-1)
}
