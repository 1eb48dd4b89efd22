package ingest

import (
	"context"
	"net/url"
	"strings"
)

// Crawler expands links breadth-first out of a seed page, bounded by
// separate budgets for same-origin (internal) and cross-origin (external)
// links. It only discovers URLs; the collector fetches them again for text.
type Crawler struct {
	fetcher PageFetcher
}

func NewCrawler(fetcher PageFetcher) *Crawler {
	return &Crawler{fetcher: fetcher}
}

type crawlCandidate struct {
	url      string
	depth    int
	internal bool
}

// Crawl walks the link graph reachable from seedHTML. maxInternal and
// maxExternal bound how many links of each category may be admitted:
// -1 means unbounded, 0 means none. A page's own links are only expanded
// while the page's depth is below its category limit.
//
// Returns every successfully fetched non-seed HTML URL. Fetch failures
// abandon that branch; Crawl itself never fails.
func (c *Crawler) Crawl(ctx context.Context, baseURL, seedHTML string, maxInternal, maxExternal int) []string {
	if maxInternal == 0 && maxExternal == 0 {
		return nil
	}

	origin := originOf(baseURL)
	discovered := map[string]struct{}{baseURL: {}}
	internalCount, externalCount := 0, 0

	var docURLs []string
	queue := appendCandidates(nil, ExtractLinks(seedHTML, baseURL), origin, 1)

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if _, ok := discovered[item.url]; ok {
			continue
		}

		bound, count := maxExternal, &externalCount
		if item.internal {
			bound, count = maxInternal, &internalCount
		}
		if bound >= 0 && *count >= bound {
			continue
		}

		discovered[item.url] = struct{}{}
		*count++

		page, err := c.fetcher.FetchPage(ctx, item.url)
		if err != nil {
			continue
		}
		if page.ContentType != "" && !strings.Contains(page.ContentType, "text/html") {
			continue
		}

		docURLs = append(docURLs, item.url)

		// Expand this page's links only while its own depth is below the
		// category limit; -1 behaves as infinite.
		limit := maxExternal
		if item.internal {
			limit = maxInternal
		}
		if limit < 0 || item.depth < limit {
			queue = appendCandidates(queue, ExtractLinks(page.Body, item.url), origin, item.depth+1)
		}
	}

	return docURLs
}

func appendCandidates(queue []crawlCandidate, links []string, origin string, depth int) []crawlCandidate {
	for _, link := range links {
		queue = append(queue, crawlCandidate{
			url:      link,
			depth:    depth,
			internal: origin != "" && strings.HasPrefix(link, origin),
		})
	}
	return queue
}

// originOf reduces a URL to its scheme+host[:port] prefix, used to classify
// links as internal or external.
func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
