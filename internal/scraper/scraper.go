package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/screening-watch/internal/showing"
)

const (
	DefaultURL      = "https://analogfilmnyc.org/upcoming-screenings/"
	UserAgent       = "screening-watch/1.0 (github.com/pfrederiksen/screening-watch)"
	Timeout         = 30 * time.Second
	ContentSelector = "div.entry-content"
)

// Fetcher retrieves and parses an HTML document
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// HTTPFetcher fetches documents over HTTP
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the default timeout and User-Agent
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: Timeout,
		},
		userAgent: UserAgent,
	}
}

// Fetch downloads url and parses the body. Every failure is a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}
	return doc, nil
}

// Scraper fetches the screenings page and parses it into showings
type Scraper struct {
	fetcher Fetcher
	url     string
}

// New creates a Scraper. A nil fetcher uses NewHTTPFetcher and an empty url
// uses DefaultURL.
func New(fetcher Fetcher, url string) *Scraper {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	if url == "" {
		url = DefaultURL
	}
	return &Scraper{
		fetcher: fetcher,
		url:     url,
	}
}

// URL returns the page the scraper reads
func (s *Scraper) URL() string {
	return s.url
}

// FetchShowings fetches the page and parses it
func (s *Scraper) FetchShowings(ctx context.Context) (showing.ByDate, error) {
	doc, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			err = &FetchError{URL: s.url, Err: err}
		}
		return nil, err
	}
	return ParseDocument(doc)
}

// ParseShowings parses an HTML page from r
func ParseShowings(r io.Reader) (showing.ByDate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, parseErrorf("reading HTML: %v", err)
	}
	return ParseDocument(doc)
}

// ParseDocument parses the first content element of doc
func ParseDocument(doc *goquery.Document) (showing.ByDate, error) {
	content := doc.Find(ContentSelector).First()
	if content.Length() == 0 {
		return nil, parseErrorf("no %s element", ContentSelector)
	}
	return parseContent(fromHTML(content.Get(0), nil))
}
