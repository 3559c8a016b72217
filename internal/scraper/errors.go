package scraper

import "fmt"

// FetchError reports a failure to retrieve the page. It aborts a run.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports page structure the parser does not understand: an
// unrecognized month, a missing sibling, or a missing director/location run.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parsing screenings: " + e.Reason
}

func parseErrorf(format string, args ...interface{}) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}
