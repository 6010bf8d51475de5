package booking

import (
	"fmt"
	"strings"
	"time"
)

// Time slot labels travel in two shapes: the collaborator returns display
// labels like "10:00 AM", while the submission contract wants 24-hour "HH:MM".
// Everything that converts between the two lives here so the four booking
// surfaces cannot drift apart.

const (
	isoDateLayout   = "2006-01-02"
	label12hLayout  = "3:04 PM"
	clock24hLayout  = "15:04"
	displayDTLayout = "January 2, 2006, 3:04 PM"
)

// To24Hour converts a "h:mm AM/PM" slot label to "HH:MM". On parse failure
// the input is returned unchanged and treated as already 24-hour; callers
// must not assume success.
func To24Hour(label string) string {
	normalized := strings.ToUpper(strings.Join(strings.Fields(label), " "))
	t, err := time.Parse(label12hLayout, normalized)
	if err != nil {
		return label
	}
	return t.Format(clock24hLayout)
}

// To12Hour converts a 24-hour "HH:MM" string to a "h:mm AM/PM" label.
// Malformed input is returned unchanged.
func To12Hour(clock string) string {
	t, err := time.Parse(clock24hLayout, strings.TrimSpace(clock))
	if err != nil {
		return clock
	}
	return t.Format(label12hLayout)
}

// LocalISODate formats a date as "YYYY-MM-DD" from its local calendar
// components. Formatting through UTC shifts the calendar day near midnight
// for non-UTC hosts, so every date serialization in the booking flow goes
// through this function.
func LocalISODate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseLocalISODate parses a "YYYY-MM-DD" string to local midnight.
func ParseLocalISODate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(isoDateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("booking: parse iso date %q: %w", s, err)
	}
	return t, nil
}

// midnight truncates to local midnight, keeping the calendar day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sameDay reports whether two times fall on the same local calendar day.
func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
