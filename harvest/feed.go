package harvest

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/hazyhaar/presswatch/urlkit"
)

// feedLinkSelectors locate advertised RSS/Atom feeds on a listing page.
var feedLinkSelectors = []string{
	`link[type="application/rss+xml"]`,
	`link[type="application/atom+xml"]`,
	`a[href$=".rss"]`,
	`a[href$="/feed"]`,
	`a[href$="/feed/"]`,
}

// DiscoverFeed returns the first advertised feed URL on a page, or "".
func DiscoverFeed(doc *goquery.Document, pageURL string) string {
	for _, sel := range feedLinkSelectors {
		if href, ok := doc.Find(sel).First().Attr("href"); ok {
			if abs := urlkit.Resolve(pageURL, href); abs != "" {
				return abs
			}
		}
	}
	return ""
}

// FeedLinks fetches a feed and returns its item links, validated against the
// base domain and capped. Feed failures degrade to nil — the DOM harvest is
// the primary path and this is a shortcut, not a dependency.
func (h *Harvester) FeedLinks(ctx context.Context, feedURL, baseDomain string, limit int) []string {
	if limit <= 0 {
		limit = 20
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		h.cfg.Logger.Debug("harvest: feed parse failed", "feed_url", feedURL, "error", err)
		return nil
	}

	seen := make(map[string]bool)
	var urls []string
	for _, item := range feed.Items {
		if len(urls) >= limit {
			break
		}
		if item == nil || item.Link == "" || seen[item.Link] {
			continue
		}
		if !urlkit.ValidateArticleURL(item.Link, baseDomain) {
			continue
		}
		seen[item.Link] = true
		urls = append(urls, item.Link)
	}
	return urls
}
