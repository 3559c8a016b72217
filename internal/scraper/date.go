package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

// Used when a heading has no nested elements: "Saturday, March 15"
var dateTextPattern = regexp.MustCompile(`(?i)^(?:(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday),?\s+)?([a-z]+)\.?\s+(\d{1,2})\b`)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// parseDateHeading reads the date key from a heading shaped like
//
//	<h2><strong><span>Saturday</span> <span>March</span> 15</strong></h2>
//
// The month comes from the first nested element, or the second when the first
// is a weekday. The day is the second text node directly under the wrapper.
// Headings that do not follow that shape are read as plain text.
func parseDateHeading(heading *node) (showing.DateKey, error) {
	wrapper := heading.firstElement()
	if wrapper == nil || wrapper.firstElement() == nil {
		return parseDateText(heading.innerText())
	}

	key, err := parseNestedDate(heading, wrapper)
	if err != nil {
		if fallback, textErr := parseDateText(heading.innerText()); textErr == nil {
			return fallback, nil
		}
		return showing.DateKey{}, err
	}
	return key, nil
}

func parseNestedDate(heading, wrapper *node) (showing.DateKey, error) {
	children := wrapper.elements()
	source := children[0]
	for _, c := range children {
		if showing.IsWeekday(c.innerText()) {
			if len(children) < 2 {
				return showing.DateKey{}, parseErrorf("heading %q has a weekday but no month", heading.innerText())
			}
			source = children[1]
			break
		}
	}

	for !source.hasOwnText() {
		next := source.firstElement()
		if next == nil {
			return showing.DateKey{}, parseErrorf("heading %q has no month text", heading.innerText())
		}
		source = next
	}

	monthText := source.innerText()
	month := showing.ParseMonth(monthText)
	if month == 0 {
		return showing.DateKey{}, parseErrorf("unrecognized month %q", monthText)
	}

	texts := wrapper.textNodes()
	if len(texts) < 2 {
		return showing.DateKey{}, parseErrorf("heading %q has no day", heading.innerText())
	}
	return newDateKey(month, texts[1].text)
}

// parseDateText handles flat headings such as "Saturday March 15"
func parseDateText(text string) (showing.DateKey, error) {
	m := dateTextPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return showing.DateKey{}, parseErrorf("unrecognized date heading %q", text)
	}
	month := showing.ParseMonth(m[1])
	if month == 0 {
		return showing.DateKey{}, parseErrorf("unrecognized month %q", m[1])
	}
	return newDateKey(month, m[2])
}

func newDateKey(month time.Month, dayText string) (showing.DateKey, error) {
	digits := nonDigits.ReplaceAllString(dayText, "")
	if digits == "" {
		return showing.DateKey{}, parseErrorf("no day in %q", dayText)
	}
	day, err := strconv.Atoi(digits)
	if err != nil {
		return showing.DateKey{}, parseErrorf("invalid day %q", dayText)
	}
	key, err := showing.NewDateKey(month, day)
	if err != nil {
		return showing.DateKey{}, parseErrorf("%v", err)
	}
	return key, nil
}
