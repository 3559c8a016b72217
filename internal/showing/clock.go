package showing

import (
	"strings"
	"time"
)

var clockLayouts = []string{"3:04 PM", "3:04PM", "3 PM", "3PM", "15:04"}

// ParseClock reads a time of day such as "7:00 PM" and returns minutes
// after midnight. Runs of whitespace, including non-breaking spaces, count
// as a single space.
func ParseClock(s string) (int, bool) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}
