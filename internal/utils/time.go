package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/abstain/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == constants.DefaultTimezone {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	// Return the date at midnight in the specified timezone
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ParseQuitDate accepts a date (YYYY-MM-DD, midnight in loc) or a full RFC 3339 timestamp.
// Dates after now are rejected.
func ParseQuitDate(s string, loc *time.Location, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("quit date cannot be empty")
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = ParseDateInLocation(s, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid quit date %q: expected YYYY-MM-DD or RFC 3339", s)
		}
	}
	if t.After(now) {
		return time.Time{}, fmt.Errorf("quit date %s is in the future", t.Format(constants.DateFormat))
	}
	return t, nil
}

// DaysAgo returns the instant exactly n whole days before now.
func DaysAgo(now time.Time, n int) time.Time {
	return now.Add(-time.Duration(n) * constants.Day)
}

// FormatDate renders an instant as YYYY-MM-DD in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format(constants.DateFormat)
}

// FormatDays renders a day count as "1 day" or "N days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
