package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pfrederiksen/screening-watch/internal/calendar"
	"github.com/pfrederiksen/screening-watch/internal/showing"
	"github.com/pfrederiksen/screening-watch/internal/watcher"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

const calendarName = "Film screenings"

// DateGroup holds the showings of one date
type DateGroup struct {
	Date     string            `json:"date"`
	Showings []showing.Showing `json:"showings"`
}

// OutputResult contains data to be output
type OutputResult struct {
	RunID        string      `json:"run_id,omitempty"`
	CheckedAt    time.Time   `json:"checked_at"`
	URL          string      `json:"url"`
	ShowingCount int         `json:"showing_count"`
	NewCount     int         `json:"new_count"`
	MatchedCount int         `json:"matched_count"`
	Notified     bool        `json:"notified"`
	Snapshot     string      `json:"snapshot,omitempty"`
	Dates        []DateGroup `json:"dates"`
	Warnings     []string    `json:"warnings,omitempty"`
	// ShowAll lists every showing on the page rather than new matches
	ShowAll bool `json:"show_all,omitempty"`
}

// newCheckOutput reports the matched showings of a run
func newCheckOutput(url string, result *watcher.Result, order SortOrder) *OutputResult {
	out := &OutputResult{
		RunID:        result.RunID,
		CheckedAt:    result.CheckedAt.UTC(),
		URL:          url,
		ShowingCount: result.Current.Count(),
		NewCount:     result.New.Count(),
		MatchedCount: result.Matched.Count(),
		Notified:     result.Notified,
		Snapshot:     result.SnapshotPath,
		Dates:        groupByDate(result.Matched, order),
	}
	for _, w := range result.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	return out
}

// newListOutput reports every showing on the page
func newListOutput(url string, checkedAt time.Time, m showing.ByDate, order SortOrder) *OutputResult {
	return &OutputResult{
		CheckedAt:    checkedAt,
		URL:          url,
		ShowingCount: m.Count(),
		Dates:        groupByDate(m, order),
		ShowAll:      true,
	}
}

func groupByDate(m showing.ByDate, order SortOrder) []DateGroup {
	groups := make([]DateGroup, 0, len(m))
	for _, date := range m.Keys() {
		groups = append(groups, DateGroup{
			Date:     date.String(),
			Showings: sortShowings(m[date], order),
		})
	}
	return groups
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteCalendar writes showings as an iCalendar feed
func WriteCalendar(w io.Writer, m showing.ByDate, sourceURL string) error {
	_, err := io.WriteString(w, calendar.GenerateICS(m, calendar.Options{
		SourceURL: sourceURL,
		Name:      calendarName,
	}))
	return err
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	label := "new"
	prefix := "NEW"
	count := result.MatchedCount
	if result.ShowAll {
		label = "showings"
		prefix = ""
		count = result.ShowingCount
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}

	if count == 0 {
		if result.ShowAll {
			fmt.Fprintln(w, "No showings found.")
		} else {
			fmt.Fprintf(w, "No new matching showings found (%d new, %d total).\n", result.NewCount, result.ShowingCount)
		}
		return nil
	}

	for _, group := range result.Dates {
		fmt.Fprintf(w, "\n%s (%d %s):\n", group.Date, len(group.Showings), label)
		for _, s := range group.Showings {
			if prefix != "" {
				fmt.Fprintf(w, "  %s: %s\n", prefix, s.String())
			} else {
				fmt.Fprintf(w, "  %s\n", s.String())
			}
			if verbose {
				fmt.Fprintf(w, "       Title: %s\n", s.Title)
				if s.Director != "" {
					fmt.Fprintf(w, "       Director: %s\n", s.Director)
				}
				fmt.Fprintf(w, "       Location: %s\n", s.Location)
				fmt.Fprintf(w, "       Time: %s\n", s.Time)
			}
		}
	}

	if result.ShowAll {
		fmt.Fprintf(w, "\nTotal: %d showings across %d dates\n", count, len(result.Dates))
		return nil
	}

	fmt.Fprintf(w, "\nTotal: %d new matching showings across %d dates (%d new, %d total)\n",
		count, len(result.Dates), result.NewCount, result.ShowingCount)
	if result.Notified {
		fmt.Fprintln(w, "Notification sent.")
	}
	return nil
}

// HistoryEntry describes one snapshot for the history command
type HistoryEntry struct {
	Name     string    `json:"name"`
	TakenAt  time.Time `json:"taken_at"`
	Showings int       `json:"showings"`
	Dates    int       `json:"dates"`
	Error    string    `json:"error,omitempty"`
}

// WriteHistory lists snapshots, oldest first
func WriteHistory(w io.Writer, dir string, entries []HistoryEntry, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, struct {
			Dir       string         `json:"dir"`
			Snapshots []HistoryEntry `json:"snapshots"`
		}{dir, entries})
	case FormatText:
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if len(entries) == 0 {
		fmt.Fprintf(w, "No snapshots in %s\n", dir)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAKEN AT\tSHOWINGS\tDATES\tFILE")
	for _, e := range entries {
		if e.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t%s (%s)\n", e.TakenAt.Format(time.RFC3339), e.Name, e.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", e.TakenAt.Format(time.RFC3339), e.Showings, e.Dates, e.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d snapshots in %s\n", len(entries), dir)
	return nil
}
