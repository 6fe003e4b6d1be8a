package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/presswatch/extract"
)

// fakeHarvester serves canned pages keyed by URL; missing URLs fail like a
// navigation error.
func fakeHarvester(t *testing.T, pages map[string]string) *Harvester {
	t.Helper()
	h := NewHarvester(nil, Config{})
	h.loadPage = func(ctx context.Context, url string) (*goquery.Document, error) {
		html, ok := pages[url]
		if !ok {
			return nil, errors.New("browser: navigation failed: " + url)
		}
		return extract.Parse(html)
	}
	return h
}

func listing(links ...string) string {
	page := "<html><body>"
	for i, href := range links {
		page += fmt.Sprintf(`<article><h2 class="x"><a href=%q>Story %d</a></h2></article>`, href, i)
	}
	return page + "</body></html>"
}

func TestHarvest_FilterAndCap(t *testing.T) {
	// WHAT: Only valid article URLs are collected, up to MaxArticles.
	page := listing(
		"/2024/01/story-one.html",
		"/tag/politics",
		"/2024/01/story-two.html",
		"https://other.com/2024/01/story.html",
		"/2024/01/story-three.html",
	)
	h := fakeHarvester(t, map[string]string{"https://example.com/world": page})

	urls := h.Harvest(context.Background(), "https://example.com/world",
		Options{BaseDomain: "example.com", MaxArticles: 2})
	if len(urls) != 2 {
		t.Fatalf("got %d urls: %v", len(urls), urls)
	}
	if urls[0] != "https://example.com/2024/01/story-one.html" ||
		urls[1] != "https://example.com/2024/01/story-two.html" {
		t.Errorf("urls = %v", urls)
	}
}

func TestHarvest_Pagination(t *testing.T) {
	// WHAT: The next-page link advances the cursor up to MaxPages.
	pageOne := listing("/2024/01/a-story.html") +
		`<a rel="next" href="/world?page=2">Next</a>`
	pageTwo := listing("/2024/01/b-story.html")

	h := fakeHarvester(t, map[string]string{
		"https://example.com/world":        pageOne,
		"https://example.com/world?page=2": pageTwo,
	})

	urls := h.Harvest(context.Background(), "https://example.com/world",
		Options{BaseDomain: "example.com", MaxPages: 3, MaxArticles: 10})
	if len(urls) != 2 {
		t.Fatalf("got %v", urls)
	}

	// With MaxPages 1, pagination must not run at all.
	urls = h.Harvest(context.Background(), "https://example.com/world",
		Options{BaseDomain: "example.com", MaxPages: 1, MaxArticles: 10})
	if len(urls) != 1 {
		t.Errorf("MaxPages=1 harvested %v", urls)
	}
}

func TestHarvest_BadPageReturnsPartial(t *testing.T) {
	// WHAT: A navigation failure mid-walk returns what was collected, not
	// an error.
	// WHY: One dead page must not sink a whole category.
	pageOne := listing("/2024/01/a-story.html") +
		`<a rel="next" href="/world?page=2">Next</a>`
	h := fakeHarvester(t, map[string]string{
		"https://example.com/world": pageOne,
		// page=2 missing → load error
	})

	urls := h.Harvest(context.Background(), "https://example.com/world",
		Options{BaseDomain: "example.com", MaxPages: 5, MaxArticles: 10})
	if len(urls) != 1 {
		t.Errorf("partial harvest = %v", urls)
	}
}

func TestHarvest_FirstPageDeadReturnsEmpty(t *testing.T) {
	h := fakeHarvester(t, nil)
	urls := h.Harvest(context.Background(), "https://example.com/world",
		Options{BaseDomain: "example.com"})
	if len(urls) != 0 {
		t.Errorf("got %v", urls)
	}
}

func TestHarvest_SelfLinkingNextStops(t *testing.T) {
	// WHAT: A next link pointing at the current page stops the walk.
	// WHY: Broken paginators would otherwise loop until MaxPages.
	page := listing("/2024/01/a-story.html") +
		`<a rel="next" href="https://example.com/world">Next</a>`
	loads := 0
	h := NewHarvester(nil, Config{})
	h.loadPage = func(ctx context.Context, url string) (*goquery.Document, error) {
		loads++
		return extract.Parse(page)
	}

	h.Harvest(context.Background(), "https://example.com/world",
		Options{BaseDomain: "example.com", MaxPages: 10, MaxArticles: 50})
	if loads != 1 {
		t.Errorf("loaded %d pages, want 1", loads)
	}
}

func TestDiscoverFeed(t *testing.T) {
	// WHAT: Advertised feeds are found and resolved to absolute URLs.
	doc, _ := extract.Parse(`<html><head>
		<link type="application/rss+xml" href="/world/feed">
	</head><body></body></html>`)
	got := DiscoverFeed(doc, "https://example.com/world")
	if got != "https://example.com/world/feed" {
		t.Errorf("feed = %q", got)
	}

	doc, _ = extract.Parse(`<html><body>no feeds</body></html>`)
	if DiscoverFeed(doc, "https://example.com/world") != "" {
		t.Error("expected no feed")
	}
}

const worldFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>World</title>
<item><title>One</title><link>https://example.com/2024/01/feed-one.html</link></item>
<item><title>Two</title><link>https://example.com/2024/01/feed-two.html</link></item>
<item><title>Again</title><link>https://example.com/2024/01/feed-one.html</link></item>
<item><title>Elsewhere</title><link>https://other.com/2024/01/off-site.html</link></item>
</channel></rss>`

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedLinks(t *testing.T) {
	// WHAT: Feed items are validated against the base domain, deduplicated
	// and capped like DOM links.
	srv := feedServer(t, worldFeed)
	h := NewHarvester(nil, Config{})

	urls := h.FeedLinks(context.Background(), srv.URL, "example.com", 10)
	want := []string{
		"https://example.com/2024/01/feed-one.html",
		"https://example.com/2024/01/feed-two.html",
	}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("urls = %v, want %v", urls, want)
	}

	if got := h.FeedLinks(context.Background(), srv.URL, "example.com", 1); len(got) != 1 {
		t.Errorf("cap ignored: %v", got)
	}
}

func TestFeedLinks_BadFeedDegradesToNil(t *testing.T) {
	// WHY: The DOM harvest is the primary path; a broken feed must cost
	// nothing but a debug line.
	srv := feedServer(t, "not a feed at all")
	if got := NewHarvester(nil, Config{}).FeedLinks(context.Background(), srv.URL, "example.com", 10); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestHarvest_FeedShortcutMerges(t *testing.T) {
	// WHAT: A feed advertised on the first page contributes links through
	// the same dedup set and cap as the DOM anchors.
	srv := feedServer(t, worldFeed)
	page := `<html><head><link type="application/rss+xml" href="` + srv.URL + `"></head><body>` +
		`<article><h2><a href="/2024/01/feed-one.html">Shared</a></h2></article>` +
		`<article><h2><a href="/2024/01/dom-only.html">DOM only</a></h2></article>` +
		`</body></html>`
	h := fakeHarvester(t, map[string]string{"https://example.com/world": page})

	urls := h.Harvest(context.Background(), "https://example.com/world",
		Options{BaseDomain: "example.com", MaxArticles: 10})
	want := []string{
		"https://example.com/2024/01/feed-one.html",
		"https://example.com/2024/01/feed-two.html",
		"https://example.com/2024/01/dom-only.html",
	}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("urls = %v, want %v", urls, want)
	}

	// The cap spans both contributions.
	urls = h.Harvest(context.Background(), "https://example.com/world",
		Options{BaseDomain: "example.com", MaxArticles: 2})
	if len(urls) != 2 {
		t.Errorf("capped harvest = %v", urls)
	}
}
