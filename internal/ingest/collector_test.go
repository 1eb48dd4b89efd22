package ingest

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/canopy-labs/knowledgebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textSource(value string, meta map[string]string) *domain.Source {
	return &domain.Source{
		ID:       "src-1",
		TenantID: "tenant-1",
		Type:     domain.SourceTypeText,
		Value:    value,
		Metadata: meta,
	}
}

func TestCollect_Text(t *testing.T) {
	c := NewCollector(&stubFetcher{}, 0, 0)

	docs, err := c.Collect(context.Background(), textSource("plain content", nil))
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "plain content", docs[0].Text)
	assert.Equal(t, "Text input", docs[0].Origin)
}

func TestCollect_TextWithLabel(t *testing.T) {
	c := NewCollector(&stubFetcher{}, 0, 0)
	src := textSource("notes", map[string]string{domain.MetaSourceLabel: "meeting notes"})

	docs, err := c.Collect(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "meeting notes", docs[0].Origin)
}

func TestCollect_CSV(t *testing.T) {
	c := NewCollector(&stubFetcher{}, 0, 0)
	payload := base64.StdEncoding.EncodeToString([]byte("name,age\n\n,,\nalice,30\n"))
	src := &domain.Source{
		Type:     domain.SourceTypeCSV,
		Value:    payload,
		Metadata: map[string]string{domain.MetaFilename: "people.csv"},
	}

	docs, err := c.Collect(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "name,age\nalice,30", docs[0].Text)
	assert.Equal(t, "people.csv", docs[0].Origin)
}

func TestCollect_CSVDefaultLabel(t *testing.T) {
	c := NewCollector(&stubFetcher{}, 0, 0)
	src := &domain.Source{
		Type:  domain.SourceTypeCSV,
		Value: base64.StdEncoding.EncodeToString([]byte("a,b\n")),
	}

	docs, err := c.Collect(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "CSV upload", docs[0].Origin)
}

func TestCollect_CSVInvalidBase64(t *testing.T) {
	c := NewCollector(&stubFetcher{}, 0, 0)
	src := &domain.Source{Type: domain.SourceTypeCSV, Value: "not base64!!!"}

	_, err := c.Collect(context.Background(), src)
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeCollection, derr.Code)
}

func TestCollect_CSVNoRows(t *testing.T) {
	c := NewCollector(&stubFetcher{}, 0, 0)
	src := &domain.Source{
		Type:  domain.SourceTypeCSV,
		Value: base64.StdEncoding.EncodeToString([]byte(",,\n,,\n")),
	}

	_, err := c.Collect(context.Background(), src)
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "CSV produced no rows", derr.Message)
}

func TestCollect_PDF(t *testing.T) {
	fetcher := &stubFetcher{mirror: map[string]string{
		"https://site.test/paper.pdf": "  extracted pdf text  ",
	}}
	c := NewCollector(fetcher, 0, 0)
	src := &domain.Source{Type: domain.SourceTypePDF, Value: "https://site.test/paper.pdf"}

	docs, err := c.Collect(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "extracted pdf text", docs[0].Text)
	assert.Equal(t, "https://site.test/paper.pdf", docs[0].Origin)
}

func TestCollect_PDFEmptyText(t *testing.T) {
	fetcher := &stubFetcher{mirror: map[string]string{
		"https://site.test/blank.pdf": "   ",
	}}
	c := NewCollector(fetcher, 0, 0)
	src := &domain.Source{Type: domain.SourceTypePDF, Value: "https://site.test/blank.pdf"}

	_, err := c.Collect(context.Background(), src)
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "PDF produced no text", derr.Message)
}

func TestCollect_SitemapUnsupported(t *testing.T) {
	c := NewCollector(&stubFetcher{}, 0, 0)
	src := &domain.Source{Type: domain.SourceTypeSitemap, Value: "https://site.test/sitemap.xml"}

	_, err := c.Collect(context.Background(), src)
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeCollection, derr.Code)
	assert.Contains(t, derr.Message, "sitemap")
}

func TestCollect_URLWithoutCrawl(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]*Page{
		"https://site.test": {
			Body:        `<html><body><p>Hello world</p><a href="/more">more</a></body></html>`,
			ContentType: "text/html",
		},
	}}
	c := NewCollector(fetcher, 0, 0)
	src := &domain.Source{Type: domain.SourceTypeURL, Value: "https://site.test"}

	docs, err := c.Collect(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Text, "Hello world")
	assert.Equal(t, "https://site.test", docs[0].Origin)
	assert.Equal(t, []string{"https://site.test"}, fetcher.fetched)
}

func TestCollect_URLWithCrawl(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]*Page{
		"https://site.test": {
			Body:        htmlWithLinks("/child"),
			ContentType: "text/html",
		},
		"https://site.test/child": {
			Body:        "<p>child content</p>",
			ContentType: "text/html",
		},
	}}
	c := NewCollector(fetcher, 0, 0)
	src := &domain.Source{
		Type:     domain.SourceTypeURL,
		Value:    "https://site.test",
		Metadata: map[string]string{domain.MetaInternalCrawlDepth: "1"},
	}

	docs, err := c.Collect(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "https://site.test/child", docs[1].Origin)
	assert.Contains(t, docs[1].Text, "child content")
}

func TestCollect_URLMirrorFallback(t *testing.T) {
	fetcher := &stubFetcher{mirror: map[string]string{
		"https://blocked.test": "mirror extracted text",
	}}
	c := NewCollector(fetcher, 0, 0)
	src := &domain.Source{Type: domain.SourceTypeURL, Value: "https://blocked.test"}

	docs, err := c.Collect(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "mirror extracted text", docs[0].Text)
}

func TestCollect_URLBothFetchesFail(t *testing.T) {
	c := NewCollector(&stubFetcher{}, 0, 0)
	src := &domain.Source{Type: domain.SourceTypeURL, Value: "https://down.test"}

	_, err := c.Collect(context.Background(), src)
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeCollection, derr.Code)
	assert.Equal(t, "failed to fetch source URL", derr.Message)
}

func TestDepthFromMeta(t *testing.T) {
	assert.Equal(t, 3, depthFromMeta(nil, domain.MetaInternalCrawlDepth, 3))
	assert.Equal(t, 5, depthFromMeta(map[string]string{domain.MetaInternalCrawlDepth: "5"}, domain.MetaInternalCrawlDepth, 0))
	assert.Equal(t, -1, depthFromMeta(map[string]string{domain.MetaInternalCrawlDepth: "-1"}, domain.MetaInternalCrawlDepth, 0))
	// present but non-numeric means no crawling, not the default
	assert.Equal(t, 0, depthFromMeta(map[string]string{domain.MetaInternalCrawlDepth: "lots"}, domain.MetaInternalCrawlDepth, 3))
}
