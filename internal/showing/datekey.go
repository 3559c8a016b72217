package showing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKey is a calendar day without a year. The source page never spans a
// year boundary, so month and day are enough to order showings.
type DateKey struct {
	Month time.Month
	Day   int
}

// NewDateKey validates month and day. February accepts the 29th.
func NewDateKey(month time.Month, day int) (DateKey, error) {
	if month < time.January || month > time.December {
		return DateKey{}, fmt.Errorf("invalid month: %d", month)
	}
	if day < 1 || day > daysIn(month) {
		return DateKey{}, fmt.Errorf("invalid day %d for %s", day, month)
	}
	return DateKey{Month: month, Day: day}, nil
}

// daysIn uses a leap year so that Feb 29 is accepted
func daysIn(month time.Month) int {
	return time.Date(2000, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseDateKey parses the zero-padded "MM-DD" form
func ParseDateKey(s string) (DateKey, error) {
	monthText, dayText, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || len(monthText) != 2 || len(dayText) != 2 {
		return DateKey{}, fmt.Errorf("invalid date key %q: want MM-DD", s)
	}
	month, err := strconv.Atoi(monthText)
	if err != nil {
		return DateKey{}, fmt.Errorf("invalid date key %q: %w", s, err)
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return DateKey{}, fmt.Errorf("invalid date key %q: %w", s, err)
	}
	return NewDateKey(time.Month(month), day)
}

// String formats the key as "MM-DD"
func (k DateKey) String() string {
	return fmt.Sprintf("%02d-%02d", int(k.Month), k.Day)
}

// Compare returns -1, 0 or +1 ordering by month, then day
func (k DateKey) Compare(other DateKey) int {
	switch {
	case k.Month < other.Month:
		return -1
	case k.Month > other.Month:
		return 1
	case k.Day < other.Day:
		return -1
	case k.Day > other.Day:
		return 1
	}
	return 0
}

// Before reports whether k sorts before other
func (k DateKey) Before(other DateKey) bool {
	return k.Compare(other) < 0
}

// MarshalText lets DateKey act as a JSON object key
func (k DateKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the "MM-DD" form
func (k *DateKey) UnmarshalText(text []byte) error {
	parsed, err := ParseDateKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseMonth converts a month name or its three-letter abbreviation to
// time.Month. Returns 0 when the name is not recognized.
func ParseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))

	months := map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "sept": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}

	return months[name]
}

// IsWeekday reports whether name is a full weekday name, ignoring case and
// trailing punctuation such as "Saturday,"
func IsWeekday(name string) bool {
	name = strings.ToLower(strings.TrimRight(strings.TrimSpace(name), ",."))
	switch name {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		return true
	}
	return false
}
