package rewards

import "time"

// SameCalendarDay compares calendar dates, not a rolling 24h window.
func SameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsYesterday reports whether last falls on the calendar day before today.
func IsYesterday(last, today time.Time) bool {
	y := today.AddDate(0, 0, -1)
	return last.Year() == y.Year() && last.YearDay() == y.YearDay()
}

// DaysBetween returns the elapsed time between a and b in fractional days.
func DaysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}

// Expired reports whether now is strictly past expiry. A code checked
// exactly at its expiry instant still counts as valid.
func Expired(expiry, now time.Time) bool {
	return now.After(expiry)
}
