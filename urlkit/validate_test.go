package urlkit

import "testing"

func TestValidateCategoryURL(t *testing.T) {
	// WHAT: Only same-host links with exactly one path segment pass.
	// WHY: Category sections live one level under the homepage; anything
	// deeper is an article or utility page.
	home := "https://example.com/"
	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/world", true},
		{"/world", true},
		{"https://example.com/world/asia", false},
		{"https://example.com/", false},
		{"https://example.com", false},
		{"https://other.com/world", false},
		{"https://example.com/world.jpg", false},
		{"#", false},
		{"", false},
		{"javascript:void(0)", false},
		{"mailto:desk@example.com", false},
	}
	for _, tc := range cases {
		if got := ValidateCategoryURL(tc.url, home); got != tc.want {
			t.Errorf("ValidateCategoryURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestValidateCategoryURL_HomepageWithPath(t *testing.T) {
	// WHAT: A link equal to the homepage (modulo trailing slash) is rejected
	// even when the homepage itself has a path.
	if ValidateCategoryURL("https://example.com/news/", "https://example.com/news") {
		t.Error("homepage self-link should be rejected")
	}
}

func TestValidateArticleURL(t *testing.T) {
	// WHAT: Article links pass; listing, utility, media, and off-site links
	// are rejected.
	base := "example.com"
	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/2024/01/story-title.html", true},
		{"https://www.example.com/politics/big-vote-2024", true},
		{"https://example.com/tag/politics", false},
		{"https://example.com/about", false},
		{"https://example.com/author/jane-doe", false},
		{"https://example.com/page/2", false},
		{"https://example.com/", false},
		{"https://example.com/a", false},
		{"https://example.com/pic/shot.jpg", false},
		{"https://other.com/2024/01/story.html", false},
		{"ftp://example.com/2024/01/story.html", false},
	}
	for _, tc := range cases {
		if got := ValidateArticleURL(tc.url, base); got != tc.want {
			t.Errorf("ValidateArticleURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	// WHAT: Relative hrefs resolve against the page URL.
	got := Resolve("https://example.com/world/", "../politics/vote")
	if got != "https://example.com/politics/vote" {
		t.Errorf("Resolve = %q", got)
	}
	if Resolve("https://example.com/", "https://cdn.example.com/x/y") != "https://cdn.example.com/x/y" {
		t.Error("absolute hrefs should pass through")
	}
}

func TestCategorySegment(t *testing.T) {
	if got := CategorySegment("https://example.com/world-news"); got != "world-news" {
		t.Errorf("got %q", got)
	}
	if CategorySegment("https://example.com/a/b") != "" {
		t.Error("multi-segment paths have no category segment")
	}
}
