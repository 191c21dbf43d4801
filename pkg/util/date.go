package util

import "time"

// DateLayout is the storage layout for trading dates.
const DateLayout = "2006-01-02"

// ParseDate parses a trading date in the storage layout. Returns (t, true)
// at UTC midnight if it parsed.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// FormatDate renders a trading date in the storage layout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DateOnly truncates a timestamp to its UTC trading date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
