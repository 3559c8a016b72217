package notifier

import (
	"context"
	"html"
	"strings"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

// Subject is the subject line of every notification
const Subject = "New Film Showings Found"

const header = "<h1>NEW FILM SHOWINGS DETECTED:</h1>\n\n"

// Notifier defines the interface for delivering notifications
type Notifier interface {
	// Send delivers an HTML message to a single recipient
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// FormatEmail renders showings grouped by date, dates ascending, followed by
// the source URL
func FormatEmail(diffs showing.ByDate, sourceURL string) string {
	var b strings.Builder
	b.WriteString(header)

	for _, date := range diffs.Keys() {
		b.WriteString("<h2>")
		b.WriteString(date.String())
		b.WriteString("</h2>")
		for _, s := range diffs[date] {
			b.WriteString("<p>")
			b.WriteString(html.EscapeString(s.String()))
			b.WriteString("</p>")
		}
		b.WriteString("\n")
	}

	b.WriteString("Source: ")
	b.WriteString(sourceURL)
	return b.String()
}
