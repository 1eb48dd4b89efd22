package ingest

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks parses anchor tags out of htmlText, resolves each href
// against base and returns the deduplicated set of absolute http(s) URLs.
// Fragment-only links and non-http(s) schemes are discarded, malformed
// hrefs are skipped. Extraction never fails the caller: broken markup just
// yields whatever links were readable.
func ExtractLinks(htmlText, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		baseURL = nil
	}

	seen := make(map[string]struct{})
	var links []string

	tz := html.NewTokenizer(strings.NewReader(htmlText))
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			// io.EOF or unparseable input; either way we are done
			return links
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := tz.TagName()
		if len(name) != 1 || name[0] != 'a' || !hasAttr {
			continue
		}

		href := anchorHref(tz)
		if href == "" || strings.HasPrefix(href, "#") {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		if baseURL != nil {
			ref = baseURL.ResolveReference(ref)
		}
		if ref.Scheme != "http" && ref.Scheme != "https" {
			continue
		}

		link := ref.String()
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
}

func anchorHref(tz *html.Tokenizer) string {
	var href string
	for {
		key, val, more := tz.TagAttr()
		if string(key) == "href" && href == "" {
			href = strings.TrimSpace(string(val))
		}
		if !more {
			return href
		}
	}
}
