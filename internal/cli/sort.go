package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

// SortOrder represents the available sorting options within a date
type SortOrder string

const (
	SortByDocument SortOrder = "document"
	SortByTime     SortOrder = "time"
	SortByTitle    SortOrder = "title"
	SortByLocation SortOrder = "location"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByDocument, SortByTime, SortByTitle, SortByLocation:
		return order, nil
	case "":
		return SortByDocument, nil
	}
	return "", fmt.Errorf("invalid sort: %s (must be 'document', 'time', 'title' or 'location')", s)
}

// sortShowings returns a sorted copy of showings
func sortShowings(showings []showing.Showing, order SortOrder) []showing.Showing {
	sorted := append([]showing.Showing(nil), showings...)

	switch order {
	case SortByTime:
		sort.SliceStable(sorted, func(i, j int) bool {
			return compareByTime(sorted[i], sorted[j])
		})
	case SortByTitle:
		sort.SliceStable(sorted, func(i, j int) bool {
			if !strings.EqualFold(sorted[i].Title, sorted[j].Title) {
				return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
			}
			// If titles are equal, sort by time
			return compareByTime(sorted[i], sorted[j])
		})
	case SortByLocation:
		sort.SliceStable(sorted, func(i, j int) bool {
			if !strings.EqualFold(sorted[i].Location, sorted[j].Location) {
				return strings.ToLower(sorted[i].Location) < strings.ToLower(sorted[j].Location)
			}
			return compareByTime(sorted[i], sorted[j])
		})
	}

	return sorted
}

// compareByTime orders showings by clock time ("9:30 AM" before "2:00 PM")
// Returns true if showing i should come before showing j
func compareByTime(i, j showing.Showing) bool {
	ti, okI := showing.ParseClock(i.Time)
	tj, okJ := showing.ParseClock(j.Time)

	// If both times are valid, compare them
	if okI && okJ {
		return ti < tj
	}

	// If only one time is valid, put the valid one first
	if okI {
		return true
	}
	if okJ {
		return false
	}

	return i.Time < j.Time
}
