package timeparser

import (
	"fmt"
	"time"
)

// DefaultPeriod is the reporting window used when the caller sends an
// unknown period value.
const DefaultPeriod = 30 * 24 * time.Hour

// ParsePeriod maps a summary period name to its duration. Unknown values
// fall back to the default 30d window, mirroring the dashboard behaviour;
// known reports whether the name was recognized.
func ParsePeriod(period string) (d time.Duration, known bool) {
	switch period {
	case "24h":
		return 24 * time.Hour, true
	case "7d":
		return 7 * 24 * time.Hour, true
	case "30d":
		return DefaultPeriod, true
	case "90d":
		return 90 * 24 * time.Hour, true
	}
	return DefaultPeriod, false
}

// ParseDay attempts to parse a calendar-date input with multiple formats.
func ParseDay(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02",          // plain calendar date
		time.RFC3339,          // standard RFC3339
		"2006-01-02T15:04:05", // RFC3339 without zone
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", dateStr, lastErr)
}

// DayBounds returns the [start, end) UTC window of the calendar day holding t.
func DayBounds(t time.Time) (start, end time.Time) {
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
