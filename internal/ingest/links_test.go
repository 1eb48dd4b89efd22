package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinks_ResolvesRelative(t *testing.T) {
	html := `<html><body>
		<a href="/docs">Docs</a>
		<a href="about.html">About</a>
		<a href="https://other.test/page">Other</a>
	</body></html>`

	links := ExtractLinks(html, "https://site.test/start/")

	assert.Equal(t, []string{
		"https://site.test/docs",
		"https://site.test/start/about.html",
		"https://other.test/page",
	}, links)
}

func TestExtractLinks_SkipsFragmentsAndSchemes(t *testing.T) {
	html := `<html><body>
		<a href="#section">Anchor</a>
		<a href="">Empty</a>
		<a href="mailto:hi@site.test">Mail</a>
		<a href="javascript:void(0)">JS</a>
		<a href="/real">Real</a>
	</body></html>`

	links := ExtractLinks(html, "https://site.test")

	assert.Equal(t, []string{"https://site.test/real"}, links)
}

func TestExtractLinks_Deduplicates(t *testing.T) {
	html := `<a href="/a">one</a><a href="/a">two</a><a href="/b">three</a>`

	links := ExtractLinks(html, "https://site.test")

	assert.Equal(t, []string{"https://site.test/a", "https://site.test/b"}, links)
}

func TestExtractLinks_BrokenMarkup(t *testing.T) {
	html := `<a href="/ok">fine</a><div><a href=`

	links := ExtractLinks(html, "https://site.test")

	assert.Equal(t, []string{"https://site.test/ok"}, links)
}

func TestExtractLinks_NoLinks(t *testing.T) {
	assert.Empty(t, ExtractLinks("<p>just text</p>", "https://site.test"))
}
