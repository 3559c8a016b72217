package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

var (
	march15 = showing.DateKey{Month: time.March, Day: 15}
	march16 = showing.DateKey{Month: time.March, Day: 16}
)

func TestFormatEmail(t *testing.T) {
	diffs := showing.ByDate{
		march16: {
			{Title: "Stalker", Director: " (Andrei Tarkovsky, 1979)", Location: "Film Forum", Time: "2:00 PM"},
		},
		march15: {
			{Title: "Cinema Paradiso", Director: " (Giuseppe Tornatore, 1988)", Location: "Metrograph", Time: "7:00 PM"},
			{Title: "Apocalypse Now", Director: " (Francis Ford Coppola, 1979)", Location: "IFC Center", Time: "9:30 PM"},
		},
	}

	got := FormatEmail(diffs, "https://example.com/screenings/")

	want := "<h1>NEW FILM SHOWINGS DETECTED:</h1>\n\n" +
		"<h2>03-15</h2>" +
		"<p>Cinema Paradiso (Giuseppe Tornatore, 1988) | Metrograph @ 7:00 PM</p>" +
		"<p>Apocalypse Now (Francis Ford Coppola, 1979) | IFC Center @ 9:30 PM</p>\n" +
		"<h2>03-16</h2>" +
		"<p>Stalker (Andrei Tarkovsky, 1979) | Film Forum @ 2:00 PM</p>\n" +
		"Source: https://example.com/screenings/"

	if got != want {
		t.Errorf("FormatEmail() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatEmail_Empty(t *testing.T) {
	got := FormatEmail(showing.ByDate{}, "https://example.com/")
	want := "<h1>NEW FILM SHOWINGS DETECTED:</h1>\n\nSource: https://example.com/"
	if got != want {
		t.Errorf("FormatEmail() = %q, want %q", got, want)
	}
}

func TestFormatEmail_EscapesHTML(t *testing.T) {
	diffs := showing.ByDate{
		march15: {
			{Title: "<Tom & Jerry>", Location: "Film Forum & Anthology", Time: "7:00 PM"},
		},
	}

	got := FormatEmail(diffs, "https://example.com/")

	if strings.Contains(got, "<Tom") {
		t.Errorf("FormatEmail() did not escape title: %s", got)
	}
	if !strings.Contains(got, "&lt;Tom &amp; Jerry&gt;") {
		t.Errorf("FormatEmail() = %s, want escaped title", got)
	}
	if !strings.Contains(got, "Film Forum &amp; Anthology") {
		t.Errorf("FormatEmail() = %s, want escaped location", got)
	}
}
