package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

var (
	march15 = showing.DateKey{Month: time.March, Day: 15}
	march16 = showing.DateKey{Month: time.March, Day: 16}

	apocalypse = showing.Showing{Title: "Apocalypse Now", Director: " (Francis Ford Coppola, 1979)", Location: "IFC Center", Time: "9:30 PM"}
	stalker    = showing.Showing{Title: "Stalker", Director: " (Andrei Tarkovsky, 1979)", Location: "Film Forum", Time: "2:00 PM"}
)

func testOptions() Options {
	return Options{
		Location:  time.UTC,
		Now:       time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
		SourceURL: "https://example.com/screenings/",
		Name:      "Screenings",
	}
}

func TestGenerateICS(t *testing.T) {
	ics := GenerateICS(showing.ByDate{
		march15: {apocalypse},
		march16: {stalker},
	}, testOptions())

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//screening-watch//screening-watch//EN",
		"X-WR-CALNAME:Screenings",
		"BEGIN:VEVENT",
		"DTSTAMP:20260301T120000Z",
		"DTSTART:20260315T213000Z",
		"DTEND:20260315T233000Z",
		"SUMMARY:Apocalypse Now",
		"DESCRIPTION:Apocalypse Now (Francis Ford Coppola\\, 1979)\\n9:30 PM",
		"LOCATION:IFC Center",
		"URL:https://example.com/screenings/",
		"DTSTART:20260316T140000Z",
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	for _, field := range requiredFields {
		if !strings.Contains(ics, field) {
			t.Errorf("ICS missing required field: %s", field)
		}
	}

	if got := strings.Count(ics, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("Expected 2 BEGIN:VEVENT, got %d", got)
	}

	// Check that lines end with \r\n
	for _, line := range strings.SplitAfter(ics, "\n") {
		if line != "" && !strings.HasSuffix(line, "\r\n") {
			t.Errorf("line without CRLF: %q", line)
		}
	}

	// Events follow date order
	if strings.Index(ics, "Apocalypse Now") > strings.Index(ics, "Stalker") {
		t.Error("events should be in ascending date order")
	}
}

func TestGenerateICS_Timezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	opts := testOptions()
	opts.Location = ny
	ics := GenerateICS(showing.ByDate{march16: {stalker}}, opts)

	// 2:00 PM EDT on March 16, 2026 is 18:00 UTC
	if !strings.Contains(ics, "DTSTART:20260316T180000Z") {
		t.Errorf("expected New York local time converted to UTC:\n%s", ics)
	}
}

func TestGenerateICS_UnparseableTime(t *testing.T) {
	ics := GenerateICS(showing.ByDate{
		march15: {{Title: "Secret Screening", Location: "Metrograph", Time: "TBA"}},
	}, testOptions())

	if !strings.Contains(ics, "DTSTART;VALUE=DATE:20260315") {
		t.Errorf("Should fall back to an all-day event:\n%s", ics)
	}
	if !strings.Contains(ics, "DTEND;VALUE=DATE:20260316") {
		t.Errorf("All-day event should end the next day:\n%s", ics)
	}
}

func TestGenerateICS_NonBreakingSpaceInTime(t *testing.T) {
	ics := GenerateICS(showing.ByDate{
		march15: {{Title: "Mirror", Location: "Film Forum", Time: "6:15\u00a0PM"}},
	}, testOptions())

	if !strings.Contains(ics, "DTSTART:20260315T181500Z") {
		t.Errorf("Should be a timed event at 18:15:\n%s", ics)
	}
	if strings.Contains(ics, "VALUE=DATE") {
		t.Errorf("Should not fall back to an all-day event:\n%s", ics)
	}
}

func TestGenerateICS_SpecialCharacters(t *testing.T) {
	ics := GenerateICS(showing.ByDate{
		march15: {{Title: "Test; With, Special\\Characters\nAnd Newlines", Location: "A, B", Time: "7:00 PM"}},
	}, testOptions())

	if strings.Contains(ics, "SUMMARY:Test; With, Special") {
		t.Error("Special characters should be escaped in SUMMARY")
	}

	for _, want := range []string{"Test\\; With\\, Special\\\\Characters\\nAnd Newlines", "LOCATION:A\\, B"} {
		if !strings.Contains(ics, want) {
			t.Errorf("ICS missing escaped text %q:\n%s", want, ics)
		}
	}
}

func TestGenerateICS_Empty(t *testing.T) {
	ics := GenerateICS(showing.ByDate{}, testOptions())

	if !strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Errorf("empty feed should still be a calendar:\n%s", ics)
	}
	if strings.Contains(ics, "BEGIN:VEVENT") {
		t.Error("empty feed should have no events")
	}
}

func TestGenerateICS_StableUIDs(t *testing.T) {
	m := showing.ByDate{march15: {apocalypse}, march16: {stalker}}

	first := GenerateICS(m, testOptions())
	opts := testOptions()
	opts.Now = opts.Now.Add(time.Hour)
	second := GenerateICS(m, opts)

	uids := func(ics string) []string {
		var out []string
		for _, line := range strings.Split(ics, "\r\n") {
			if strings.HasPrefix(line, "UID:") {
				out = append(out, line)
			}
		}
		return out
	}

	a, b := uids(first), uids(second)
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected 2 UIDs each, got %v and %v", a, b)
	}
	if a[0] != b[0] || a[1] != b[1] {
		t.Errorf("UIDs changed between runs: %v vs %v", a, b)
	}
	if a[0] == a[1] {
		t.Error("different showings should have different UIDs")
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2026, time.December, 20, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		key  showing.DateKey
		want time.Time
	}{
		{"later this year", showing.DateKey{Month: time.December, Day: 28}, time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC)},
		{"today", showing.DateKey{Month: time.December, Day: 20}, time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)},
		{"recently past stays this year", showing.DateKey{Month: time.December, Day: 1}, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)},
		{"early in the year rolls over", showing.DateKey{Month: time.January, Day: 5}, time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"leap day moves to next leap year", showing.DateKey{Month: time.February, Day: 29}, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveDate(tt.key, now); !got.Equal(tt.want) {
				t.Errorf("ResolveDate(%s) = %s, want %s", tt.key, got, tt.want)
			}
		})
	}
}

func TestEscapeICS(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"a,b", "a\\,b"},
		{"a;b", "a\\;b"},
		{"a\\b", "a\\\\b"},
		{"a\nb", "a\\nb"},
	}

	for _, tt := range tests {
		if got := escapeICS(tt.input); got != tt.want {
			t.Errorf("escapeICS(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
