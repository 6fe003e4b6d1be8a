package extract

import (
	"reflect"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := Parse(html)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtract_FirstMatchWins(t *testing.T) {
	// WHAT: The first candidate selector with a non-empty value is returned,
	// never a later one, even when later candidates would also match.
	// WHY: Ordered fallback is the core extraction contract; scoring or
	// merging would make results depend on page noise.
	doc := mustDoc(t, `<html><head>
		<meta property="og:title" content="Meta Title">
	</head><body>
		<h1 class="entry-title">DOM Title</h1>
	</body></html>`)

	f := Extract(doc, SelectorTable{})
	if f.Title != "Meta Title" {
		t.Errorf("title = %q, want the first candidate's value", f.Title)
	}
}

func TestExtract_FallbackOnEmpty(t *testing.T) {
	// WHAT: Empty earlier candidates are skipped, not returned.
	doc := mustDoc(t, `<html><head>
		<meta property="og:title" content="">
	</head><body>
		<h1 class="entry-title">  DOM Title  </h1>
	</body></html>`)

	f := Extract(doc, SelectorTable{})
	if f.Title != "DOM Title" {
		t.Errorf("title = %q, want trimmed DOM fallback", f.Title)
	}
}

func TestExtract_ContentJoinsMatches(t *testing.T) {
	// WHAT: Content concatenates every element matched by the winning
	// selector, in document order.
	doc := mustDoc(t, `<html><body><article>
		<div class="article-content"><p>First.</p></div>
		<div class="article-content"><p>Second.</p></div>
	</article></body></html>`)

	f := Extract(doc, SelectorTable{Content: []string{".article-content"}})
	if f.ContentText != "First.\n\nSecond." {
		t.Errorf("content = %q", f.ContentText)
	}
	if f.ContentHTML == "" {
		t.Error("content HTML should be captured alongside text")
	}
}

func TestExtract_ImageAttributePriority(t *testing.T) {
	// WHAT: data-src wins over src; src wins over data-lazy-src.
	// WHY: Lazy-loaded images keep a placeholder in src.
	doc := mustDoc(t, `<html><body><article>
		<img data-src="https://cdn.example.com/real.jpg" src="placeholder.gif">
	</article></body></html>`)

	f := Extract(doc, SelectorTable{Image: []string{"article img"}})
	if f.ImageURL != "https://cdn.example.com/real.jpg" {
		t.Errorf("image = %q", f.ImageURL)
	}

	doc = mustDoc(t, `<html><body><article>
		<img src="https://cdn.example.com/only-src.jpg">
	</article></body></html>`)
	f = Extract(doc, SelectorTable{Image: []string{"article img"}})
	if f.ImageURL != "https://cdn.example.com/only-src.jpg" {
		t.Errorf("image = %q", f.ImageURL)
	}
}

func TestExtract_TagsPreferLinksOverMeta(t *testing.T) {
	// WHAT: Link-based tags win; meta keywords are the comma-split fallback.
	doc := mustDoc(t, `<html><head>
		<meta name="keywords" content="meta1, meta2">
	</head><body>
		<div class="tags"><a>politics</a><a>economy</a></div>
	</body></html>`)

	f := Extract(doc, SelectorTable{})
	if !reflect.DeepEqual(f.Tags, []string{"politics", "economy"}) {
		t.Errorf("tags = %v", f.Tags)
	}
}

func TestExtract_MetaKeywordsSplit(t *testing.T) {
	// WHAT: Meta keyword content splits on commas with whitespace trimmed.
	doc := mustDoc(t, `<html><head>
		<meta name="keywords" content=" politics ,economy,, world ">
	</head><body></body></html>`)

	f := Extract(doc, SelectorTable{})
	if !reflect.DeepEqual(f.Tags, []string{"politics", "economy", "world"}) {
		t.Errorf("tags = %v", f.Tags)
	}
}

func TestExtract_DatePrefersDatetimeAttr(t *testing.T) {
	// WHAT: <time datetime=...> yields the attribute, not the visible text.
	// WHY: Visible dates are often relative phrases.
	doc := mustDoc(t, `<html><body>
		<time datetime="2024-01-15T10:30:00Z">2 hours ago</time>
	</body></html>`)

	f := Extract(doc, SelectorTable{Date: []string{"time[datetime]"}})
	if f.Date != "2024-01-15T10:30:00Z" {
		t.Errorf("date = %q", f.Date)
	}
}

func TestExtract_AllCandidatesFail(t *testing.T) {
	// WHAT: A field whose every candidate fails is empty, not an error.
	// WHY: The caller (article scraper) decides what is fatal.
	doc := mustDoc(t, `<html><body><p>nothing structured here</p></body></html>`)

	f := Extract(doc, SelectorTable{
		Title:  []string{".no-such"},
		Author: []string{".none"},
	})
	if f.Title != "" || f.Author != "" {
		t.Errorf("expected empty fields, got %+v", f)
	}
}

func TestLinks_ResolveAndDedup(t *testing.T) {
	// WHAT: Hrefs resolve to absolute form and repeats collapse.
	doc := mustDoc(t, `<html><body>
		<a class="story" href="/2024/01/story-a.html">A</a>
		<a class="story" href="/2024/01/story-a.html">A again</a>
		<a class="story" href="https://example.com/2024/01/story-b.html" title="B story">B</a>
	</body></html>`)

	links := Links(doc, []string{"a.story"}, "https://example.com/world")
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[0].URL != "https://example.com/2024/01/story-a.html" {
		t.Errorf("links[0] = %q", links[0].URL)
	}
	if links[1].Title != "B story" {
		t.Errorf("title attr = %q", links[1].Title)
	}
}

func TestFirstLink(t *testing.T) {
	// WHAT: Ordered next-page discovery returns the first selector's match.
	doc := mustDoc(t, `<html><body>
		<a class="older" href="/world?page=3">Older</a>
		<a rel="next" href="/world?page=2">Next</a>
	</body></html>`)

	link := FirstLink(doc, []string{`a[rel="next"]`, "a.older"}, "https://example.com/world")
	if link.URL != "https://example.com/world?page=2" {
		t.Errorf("next = %q", link.URL)
	}
}
