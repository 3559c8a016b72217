// Package calendar exports showings as an iCalendar (RFC 5545) feed.
//
// Snapshot dates carry no year, so each date is placed on its next
// occurrence relative to a reference time, allowing for listings that are
// a few weeks stale.
package calendar

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

const (
	// DefaultTimezone is where the screenings take place
	DefaultTimezone = "America/New_York"
	// DefaultDuration is assumed for every showing
	DefaultDuration = 2 * time.Hour

	prodID = "-//screening-watch//screening-watch//EN"
	// staleWindow keeps dates slightly in the past in the current year
	staleWindow = 31 * 24 * time.Hour
)

// Options controls feed generation
type Options struct {
	// Location of the screenings; DefaultTimezone when nil
	Location *time.Location
	// Duration of each showing; DefaultDuration when zero
	Duration time.Duration
	// Now anchors year resolution and DTSTAMP; time.Now when zero
	Now time.Time
	// SourceURL is attached to every event
	SourceURL string
	// Name is the calendar display name
	Name string
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			loc = time.UTC
		}
		o.Location = loc
	}
	if o.Duration <= 0 {
		o.Duration = DefaultDuration
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// GenerateICS generates an iCalendar feed with one event per showing
func GenerateICS(m showing.ByDate, opts Options) string {
	opts = opts.withDefaults()

	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if opts.Name != "" {
		ics.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICS(opts.Name)))
	}

	stamp := formatICSTime(opts.Now)
	for _, date := range m.Keys() {
		day := ResolveDate(date, opts.Now.In(opts.Location))
		for _, s := range m[date] {
			writeEvent(&ics, date, day, s, stamp, opts)
		}
	}

	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeEvent(ics *strings.Builder, key showing.DateKey, day time.Time, s showing.Showing, stamp string, opts Options) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s@screening-watch\r\n", eventID(key, s)))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))

	if minutes, ok := showing.ParseClock(s.Time); ok {
		start := time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, opts.Location)
		ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(start)))
		ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(start.Add(opts.Duration))))
	} else {
		// No usable time: all-day event
		ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", day.Format("20060102")))
		ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", day.AddDate(0, 0, 1).Format("20060102")))
	}

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(s.Title)))

	description := strings.TrimSpace(s.Title + s.Director)
	if s.Time != "" {
		description = fmt.Sprintf("%s\n%s", description, s.Time)
	}
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description)))

	if s.Location != "" {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(s.Location)))
	}
	if opts.SourceURL != "" {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", opts.SourceURL))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// ResolveDate places key on its next occurrence at or after now, treating
// dates up to a month in the past as belonging to the current year. Feb 29
// moves to the next leap year.
func ResolveDate(key showing.DateKey, now time.Time) time.Time {
	year := now.Year()
	cutoff := now.Add(-staleWindow)

	for i := 0; i < 9; i++ {
		d := time.Date(year+i, key.Month, key.Day, 0, 0, 0, 0, now.Location())
		if d.Month() != key.Month {
			continue
		}
		if i == 0 && d.Before(cutoff) {
			continue
		}
		return d
	}

	return time.Date(year, key.Month, key.Day, 0, 0, 0, 0, now.Location())
}

// eventID is stable across runs for the same showing
func eventID(key showing.DateKey, s showing.Showing) string {
	sum := sha1.Sum([]byte(strings.Join([]string{key.String(), s.Title, s.Location, s.Time}, "\x00")))
	return hex.EncodeToString(sum[:10])
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
