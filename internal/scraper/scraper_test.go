package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestFetchShowings(t *testing.T) {
	tests := []struct {
		name         string
		htmlContent  string
		statusCode   int
		wantFetchErr bool
		wantParseErr bool
		wantCount    int
	}{
		{
			name: "successful fetch with showings",
			htmlContent: `<html><body><div class="entry-content">` +
				`<h2 class="wp-block-heading"><strong><span>Saturday</span> <span>March</span> 15</strong></h2>` +
				`<p><strong>7:00 PM</strong><br><em>Cinema Paradiso</em><br>Tornatore<br>Metrograph</p>` +
				`</div></body></html>`,
			statusCode: http.StatusOK,
			wantCount:  1,
		},
		{
			name:         "HTTP error",
			statusCode:   http.StatusNotFound,
			wantFetchErr: true,
		},
		{
			name:         "page without content element",
			htmlContent:  `<html><body><p>Maintenance</p></body></html>`,
			statusCode:   http.StatusOK,
			wantParseErr: true,
		},
		{
			name:        "content element without headings",
			htmlContent: `<html><body><div class="entry-content"><p>Nothing scheduled</p></div></body></html>`,
			statusCode:  http.StatusOK,
			wantCount:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if userAgent := r.Header.Get("User-Agent"); !strings.Contains(userAgent, "screening-watch") {
					t.Errorf("User-Agent = %q, should contain 'screening-watch'", userAgent)
				}

				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.htmlContent))
			}))
			defer server.Close()

			s := New(nil, server.URL)
			showings, err := s.FetchShowings(context.Background())

			var fetchErr *FetchError
			var parseErr *ParseError
			switch {
			case tt.wantFetchErr:
				if !errors.As(err, &fetchErr) {
					t.Errorf("FetchShowings() error = %v, want *FetchError", err)
				}
			case tt.wantParseErr:
				if !errors.As(err, &parseErr) {
					t.Errorf("FetchShowings() error = %v, want *ParseError", err)
				}
			default:
				if err != nil {
					t.Fatalf("FetchShowings() unexpected error: %v", err)
				}
				if showings.Count() != tt.wantCount {
					t.Errorf("FetchShowings() returned %d showings, want %d", showings.Count(), tt.wantCount)
				}
			}
		})
	}
}

func TestFetchShowings_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, server.URL).FetchShowings(ctx)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchShowings() error = %v, want *FetchError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FetchShowings() error = %v, should wrap context.Canceled", err)
	}
}

type stubFetcher struct {
	err error
}

func (f stubFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	return nil, f.err
}

func TestFetchShowings_WrapsFetcherErrors(t *testing.T) {
	s := New(stubFetcher{err: errors.New("connection reset")}, "https://test.example.com")

	_, err := s.FetchShowings(context.Background())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchShowings() error = %v, want *FetchError", err)
	}
	if fetchErr.URL != "https://test.example.com" {
		t.Errorf("FetchError.URL = %q, want https://test.example.com", fetchErr.URL)
	}
}

func TestNew(t *testing.T) {
	s := New(nil, "")

	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.fetcher == nil {
		t.Error("scraper fetcher is nil")
	}
	if s.URL() != DefaultURL {
		t.Errorf("scraper url = %q, want %q", s.URL(), DefaultURL)
	}
}
