package scraper

import (
	"regexp"
	"strings"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

const (
	headingClass = "wp-block-heading"
	headingTag   = "h2"
	markerTag    = "strong"
	partOfPrefix = " – Part of "
)

// Bolded format tags such as "(35mm)" or "(Digital)" annotate an adjacent
// showing rather than start a new one.
var formatAnnotationPattern = regexp.MustCompile(`^\((\d{2,}mm|Digital)\)$`)

// Connective text runs that sit between the director and location runs
var separatorRuns = map[string]bool{
	" – ": true,
	" & ": true,
}

type walkState int

const (
	seeking walkState = iota
	collecting
)

// parseContent walks the content element's children. A date heading switches
// to collecting; every following non-heading element is a data block for that
// date until the next heading.
func parseContent(content *node) (showing.ByDate, error) {
	result := make(showing.ByDate)
	state := seeking
	var date showing.DateKey

	for _, el := range content.elements() {
		if el.hasClass(headingClass) {
			if el.tag != headingTag {
				state = seeking
				continue
			}
			key, err := parseDateHeading(el)
			if err != nil {
				return nil, err
			}
			date = key
			state = collecting
			continue
		}

		if state == seeking {
			continue
		}

		showings, err := parseDataBlock(el)
		if err != nil {
			return nil, parseErrorf("date %s: %s", date, err.Reason)
		}
		for _, s := range showings {
			result.Add(date, s)
		}
	}

	return result, nil
}

// parseDataBlock extracts one showing per retained time marker. Director and
// location runs are paired to markers by position.
func parseDataBlock(block *node) ([]showing.Showing, *ParseError) {
	markers := timeMarkers(block)
	if len(markers) == 0 {
		return nil, nil
	}

	runs := textRuns(block)
	showings := make([]showing.Showing, 0, len(markers))

	for i, marker := range markers {
		title, err := titleAfter(marker)
		if err != nil {
			return nil, err
		}

		if 2*i+1 >= len(runs) {
			return nil, parseErrorf("no director/location text for %q", title)
		}

		showings = append(showings, showing.Showing{
			Title:    title,
			Director: runs[2*i],
			Location: strings.ReplaceAll(runs[2*i+1], partOfPrefix, ""),
			Time:     markerTime(marker),
		})
	}

	return showings, nil
}

// timeMarkers returns bolded runs containing a colon, minus format annotations
func timeMarkers(block *node) []*node {
	var markers []*node
	for _, el := range block.findAll(markerTag) {
		text := el.innerText()
		if !strings.Contains(text, ":") || formatAnnotationPattern.MatchString(text) {
			continue
		}
		markers = append(markers, el)
	}
	return markers
}

// markerTime is the raw text of the marker's first child
func markerTime(marker *node) string {
	if len(marker.children) == 0 {
		return ""
	}
	return marker.children[0].content()
}

// titleAfter reads the title two siblings past the marker; the sibling in
// between is a separator such as a <br>.
func titleAfter(marker *node) (string, *ParseError) {
	idx := marker.siblingIndex()
	if idx < 0 || idx+2 >= len(marker.parent.children) {
		return "", parseErrorf("no title after time %q", markerTime(marker))
	}

	titleNode := marker.parent.children[idx+2]
	if titleNode.isText() {
		return strings.TrimSpace(titleNode.text), nil
	}
	if len(titleNode.children) == 0 {
		return "", parseErrorf("empty title element after time %q", markerTime(marker))
	}
	return strings.TrimSpace(titleNode.children[0].content()), nil
}

// textRuns returns the block's direct text children, whitespace-normalized,
// without blanks and connectives
func textRuns(block *node) []string {
	var runs []string
	for _, t := range block.textNodes() {
		if isBlank(t.text) {
			continue
		}
		text := normalizeSpace(t.text)
		if separatorRuns[text] {
			continue
		}
		runs = append(runs, text)
	}
	return runs
}
