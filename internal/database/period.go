package database

import "time"

// DayLayout is the format of day keys.
const DayLayout = "2006-01-02"

// GetToday returns today's date as YYYY-MM-DD.
func GetToday() string {
	return time.Now().Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD key as local midnight.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, day, time.Local)
}

// FormatDayDisplay formats a day key for human-readable display,
// e.g. "Feb 06, 2026".
func FormatDayDisplay(day string) string {
	d, err := ParseDay(day)
	if err != nil {
		return day
	}
	return d.Format("Jan 02, 2006")
}
