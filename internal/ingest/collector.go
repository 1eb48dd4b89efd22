package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/canopy-labs/knowledgebot/internal/domain"
	"github.com/jaytaylor/html2text"
)

const (
	defaultTextLabel = "Text input"
	defaultCSVLabel  = "CSV upload"
)

// Collector turns a source descriptor into a list of documents, dispatching
// on the source type. URL sources may fan out into many documents through
// the crawler.
type Collector struct {
	fetcher       PageFetcher
	crawler       *Crawler
	internalDepth int
	externalDepth int
}

// NewCollector builds a collector. internalDepth and externalDepth are the
// crawl budgets used when a source carries no depth metadata of its own.
func NewCollector(fetcher PageFetcher, internalDepth, externalDepth int) *Collector {
	return &Collector{
		fetcher:       fetcher,
		crawler:       NewCrawler(fetcher),
		internalDepth: internalDepth,
		externalDepth: externalDepth,
	}
}

func (c *Collector) Collect(ctx context.Context, src *domain.Source) ([]domain.Document, error) {
	switch src.Type {
	case domain.SourceTypeURL:
		return c.collectURL(ctx, src)
	case domain.SourceTypePDF:
		return c.collectPDF(ctx, src)
	case domain.SourceTypeText:
		return c.collectText(src), nil
	case domain.SourceTypeCSV:
		return c.collectCSV(src)
	default:
		// sitemap is declared in the type enum but has no collection
		// strategy; fail loudly instead of guessing.
		return nil, domain.NewDomainError(domain.ErrCodeCollection, fmt.Sprintf("unsupported source type %q", src.Type))
	}
}

func (c *Collector) collectURL(ctx context.Context, src *domain.Source) ([]domain.Document, error) {
	seedHTML, seedText, err := c.fetchDocument(ctx, src.Value)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCollection, "failed to fetch source URL", err)
	}

	docs := []domain.Document{{Text: seedText, Origin: src.Value}}

	internalDepth := depthFromMeta(src.Metadata, domain.MetaInternalCrawlDepth, c.internalDepth)
	externalDepth := depthFromMeta(src.Metadata, domain.MetaExternalCrawlDepth, c.externalDepth)
	if internalDepth == 0 && externalDepth == 0 {
		return docs, nil
	}

	visited := map[string]struct{}{src.Value: {}}
	for _, link := range c.crawler.Crawl(ctx, src.Value, seedHTML, internalDepth, externalDepth) {
		if _, ok := visited[link]; ok {
			continue
		}
		visited[link] = struct{}{}

		// A single unreadable page never fails the run; the seed
		// document above is always retained.
		_, text, err := c.fetchDocument(ctx, link)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, domain.Document{Text: text, Origin: link})
	}

	return docs, nil
}

// fetchDocument fetches a page and converts it to plain text. When the
// primary fetch fails it falls back to the text-extraction mirror; when the
// mirror fails too, the primary's error is the one propagated.
func (c *Collector) fetchDocument(ctx context.Context, url string) (html, text string, err error) {
	page, err := c.fetcher.FetchPage(ctx, url)
	if err != nil {
		mirrored, mirrorErr := c.fetcher.FetchViaMirror(ctx, url)
		if mirrorErr != nil {
			return "", "", err
		}
		return "", strings.TrimSpace(mirrored), nil
	}

	text, convErr := htmlToText(page.Body)
	if convErr != nil {
		return "", "", convErr
	}
	return page.Body, text, nil
}

func (c *Collector) collectPDF(ctx context.Context, src *domain.Source) ([]domain.Document, error) {
	text, err := c.fetcher.FetchViaMirror(ctx, src.Value)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCollection, "failed to extract document text", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewDomainError(domain.ErrCodeCollection, "PDF produced no text")
	}
	return []domain.Document{{Text: text, Origin: src.Value}}, nil
}

func (c *Collector) collectText(src *domain.Source) []domain.Document {
	origin := src.Metadata[domain.MetaSourceLabel]
	if origin == "" {
		origin = defaultTextLabel
	}
	return []domain.Document{{Text: src.Value, Origin: origin}}
}

func (c *Collector) collectCSV(src *domain.Source) ([]domain.Document, error) {
	raw, err := base64.StdEncoding.DecodeString(src.Value)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCollection, "invalid base64 CSV payload", err)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1 // uneven column counts are tolerated
	reader.LazyQuotes = true

	var lines []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		line := strings.Join(record, ",")
		if strings.TrimSpace(strings.ReplaceAll(line, ",", " ")) == "" {
			continue
		}
		lines = append(lines, line)
	}

	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return nil, domain.NewDomainError(domain.ErrCodeCollection, "CSV produced no rows")
	}

	origin := src.Metadata[domain.MetaFilename]
	if origin == "" {
		origin = defaultCSVLabel
	}
	return []domain.Document{{Text: text, Origin: origin}}, nil
}

// htmlToText strips markup (scripts, images, styling) and returns readable
// wrapped text. Plain text input passes through mostly untouched.
func htmlToText(body string) (string, error) {
	text, err := html2text.FromString(body, html2text.Options{TextOnly: true})
	if err != nil {
		return "", fmt.Errorf("converting html to text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// depthFromMeta reads a crawl depth out of source metadata. A missing key
// uses the configured default; a present but non-numeric value means 0.
func depthFromMeta(meta map[string]string, key string, def int) int {
	raw, ok := meta[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
