package storage

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

// Delimiter joins the fields of a snapshot line
const Delimiter = ";;"

const fieldCount = 5

// Fields are percent-escaped so that no encoded field contains a ';' or a
// line break. Fields without '%', ';' or line breaks are written verbatim.
var (
	fieldEscaper = strings.NewReplacer(
		"%", "%25",
		";", "%3B",
		"\n", "%0A",
		"\r", "%0D",
	)
	fieldUnescaper = strings.NewReplacer(
		"%25", "%",
		"%3B", ";",
		"%0A", "\n",
		"%0D", "\r",
	)
)

// Encode writes m one showing per line, dates ascending, fields joined by
// Delimiter. Showings are written in their current order; Persist sorts them
// by time first.
func Encode(w io.Writer, m showing.ByDate) error {
	bw := bufio.NewWriter(w)

	for _, date := range m.Keys() {
		for _, s := range m[date] {
			fields := []string{date.String(), s.Title, s.Director, s.Location, s.Time}
			for i, f := range fields {
				fields[i] = fieldEscaper.Replace(f)
			}
			if _, err := bw.WriteString(strings.Join(fields, Delimiter) + "\n"); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// Decode reads a snapshot, grouping lines by date in file order
func Decode(r io.Reader) (showing.ByDate, error) {
	result := make(showing.ByDate)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, Delimiter)
		if len(fields) != fieldCount {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", ErrCorrupt, lineNum, len(fields), fieldCount)
		}

		date, err := showing.ParseDateKey(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, lineNum, err)
		}

		result.Add(date, showing.Showing{
			Title:    fieldUnescaper.Replace(fields[1]),
			Director: fieldUnescaper.Replace(fields[2]),
			Location: fieldUnescaper.Replace(fields[3]),
			Time:     fieldUnescaper.Replace(fields[4]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	return result, nil
}
