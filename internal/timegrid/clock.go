package timegrid

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidClock is returned for times not in HH:MM format.
var ErrInvalidClock = errors.New("time must be in HH:MM format")

// MinutesPerDay is 24 hours * 60 minutes.
const MinutesPerDay = 1440

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ToMinutes converts "HH:MM" to minutes since midnight.
// Returns 0 for invalid input.
func ToMinutes(s string) int {
	m, err := ParseClock(s)
	if err != nil {
		return 0
	}
	return m
}

// FromMinutes converts minutes since midnight to "HH:MM" format.
// Values are clamped to the day.
func FromMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	if m >= MinutesPerDay {
		m = MinutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutes shifts an "HH:MM" time by delta minutes.
func AddMinutes(s string, delta int) string {
	return FromMinutes(ToMinutes(s) + delta)
}

// DurationBetween returns end - start in minutes.
func DurationBetween(start, end string) int {
	return ToMinutes(end) - ToMinutes(start)
}
