package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Page is a fetched remote resource.
type Page struct {
	Body        string
	ContentType string
}

// PageFetcher fetches remote resources for the crawler and the collector.
type PageFetcher interface {
	// FetchPage GETs a URL and returns its body and declared content type.
	FetchPage(ctx context.Context, url string) (*Page, error)
	// FetchViaMirror GETs a URL through the text-extraction mirror, which
	// returns the page/document content as plain text.
	FetchViaMirror(ctx context.Context, url string) (string, error)
}

// maxFetchBytes caps how much of a remote body is read.
const maxFetchBytes = 10 << 20

// HTTPFetcher is the production PageFetcher. The mirror is a prefix-style
// text-extraction service: GET <mirror>/<target-url> returns extracted text.
type HTTPFetcher struct {
	client    *http.Client
	mirrorURL string
}

func NewHTTPFetcher(mirrorURL string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		mirrorURL: strings.TrimRight(mirrorURL, "/"),
	}
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) (*Page, error) {
	body, contentType, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Page{Body: body, ContentType: contentType}, nil
}

func (f *HTTPFetcher) FetchViaMirror(ctx context.Context, url string) (string, error) {
	if f.mirrorURL == "" {
		return "", fmt.Errorf("no text-extraction mirror configured")
	}
	body, _, err := f.get(ctx, f.mirrorURL+"/"+url)
	if err != nil {
		return "", err
	}
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("creating request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", url, err)
	}

	return string(body), resp.Header.Get("Content-Type"), nil
}
