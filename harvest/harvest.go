// Package harvest collects article URLs from category listing pages:
// navigate, settle, scroll to trigger lazy listings, harvest anchors through
// an ordered selector list, validate, and optionally follow "next page"
// links until a cap. A bad page ends the walk with partial results — the
// harvester never fails a whole category over one page.
package harvest

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/presswatch/browser"
	"github.com/hazyhaar/presswatch/extract"
	"github.com/hazyhaar/presswatch/urlkit"
)

// Options bound one harvest run.
type Options struct {
	// MaxPages limits pagination depth. Default: 1 (no pagination).
	MaxPages int
	// MaxArticles caps collected URLs. Default: 20.
	MaxArticles int
	// BaseDomain scopes article-URL validation to the source's site.
	BaseDomain string
}

func (o *Options) defaults() {
	if o.MaxPages <= 0 {
		o.MaxPages = 1
	}
	if o.MaxArticles <= 0 {
		o.MaxArticles = 20
	}
}

// Config configures the harvester's selector lists.
type Config struct {
	// ArticleSelectors locate article anchors on listing pages, most
	// specific first.
	ArticleSelectors []string `yaml:"article_selectors"`

	// NextPageSelectors locate the pagination-forward link.
	NextPageSelectors []string `yaml:"next_page_selectors"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if len(c.ArticleSelectors) == 0 {
		c.ArticleSelectors = []string{
			"article h2 a",
			"article h3 a",
			"article a",
			".post-title a",
			".entry-title a",
			".article-title a",
			"h2.title a",
			".news-item a",
			".card a",
		}
	}
	if len(c.NextPageSelectors) == 0 {
		c.NextPageSelectors = []string{
			`a[rel="next"]`,
			".pagination .next a",
			"a.next",
			".nav-links .next",
			`a[aria-label="Next"]`,
		}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Harvester walks category listing pages through a shared browser driver.
type Harvester struct {
	cfg      Config
	loadPage func(ctx context.Context, url string) (*goquery.Document, error)
}

// NewHarvester creates a Harvester.
func NewHarvester(driver *browser.Driver, cfg Config) *Harvester {
	cfg.defaults()
	h := &Harvester{cfg: cfg}
	h.loadPage = func(ctx context.Context, url string) (*goquery.Document, error) {
		session, err := driver.OpenSession(ctx)
		if err != nil {
			return nil, err
		}
		defer session.Close()

		if err := session.Navigate(ctx, url, false); err != nil {
			return nil, err
		}
		session.Settle(ctx)
		if err := session.ScrollBottom(ctx); err != nil {
			cfg.Logger.Debug("harvest: scroll failed", "url", url, "error", err)
		}
		session.Settle(ctx)

		html, err := session.HTML(ctx)
		if err != nil {
			return nil, err
		}
		return extract.Parse(html)
	}
	return h
}

// Harvest collects unique article URLs starting at categoryURL. Navigation
// errors terminate the walk early and whatever was collected so far is
// returned; Harvest itself never fails.
func (h *Harvester) Harvest(ctx context.Context, categoryURL string, opts Options) []string {
	opts.defaults()
	log := h.cfg.Logger.With("category_url", categoryURL)

	seen := make(map[string]bool)
	var urls []string
	current := categoryURL

	for page := 0; page < opts.MaxPages && len(urls) < opts.MaxArticles; page++ {
		doc, err := h.loadPage(ctx, current)
		if err != nil {
			log.Warn("harvest: page load failed, returning partial results",
				"page_url", current, "collected", len(urls), "error", err)
			break
		}

		// An advertised feed is a shortcut worth one fetch: its links merge
		// into the same cap and dedup set as the DOM harvest.
		if page == 0 {
			if feedURL := DiscoverFeed(doc, current); feedURL != "" {
				fed := 0
				for _, u := range h.FeedLinks(ctx, feedURL, opts.BaseDomain, opts.MaxArticles) {
					if len(urls) >= opts.MaxArticles {
						break
					}
					if seen[u] {
						continue
					}
					seen[u] = true
					urls = append(urls, u)
					fed++
				}
				log.Debug("harvest: feed shortcut", "feed_url", feedURL, "collected", fed)
			}
		}

		for _, link := range extract.Links(doc, h.cfg.ArticleSelectors, current) {
			if len(urls) >= opts.MaxArticles {
				break
			}
			if seen[link.URL] || !urlkit.ValidateArticleURL(link.URL, opts.BaseDomain) {
				continue
			}
			seen[link.URL] = true
			urls = append(urls, link.URL)
		}

		if len(urls) >= opts.MaxArticles || page == opts.MaxPages-1 {
			break
		}
		next := extract.FirstLink(doc, h.cfg.NextPageSelectors, current)
		if next.URL == "" || next.URL == current {
			break
		}
		current = next.URL
	}

	log.Info("harvest: done", "collected", len(urls))
	return urls
}
