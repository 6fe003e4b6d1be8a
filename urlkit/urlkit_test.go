package urlkit

import (
	"errors"
	"testing"
)

func TestSlugify(t *testing.T) {
	// WHAT: Titles map to lowercase hyphenated slugs.
	// WHY: Slugs are storage keys; they must be stable and URL-safe.
	cases := []struct {
		in, want string
	}{
		{"Breaking News: Markets Rally!", "breaking-news-markets-rally"},
		{"  Trimmed  ", "trimmed"},
		{"already-a-slug", "already-a-slug"},
		{"Ünïcode gets dropped", "n-code-gets-dropped"},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCategoryKey_CaseInsensitive(t *testing.T) {
	// WHAT: Names differing only in case or punctuation share a key.
	// WHY: (source_id, slug) uniqueness depends on normalized keys.
	if CategoryKey("World News") != CategoryKey("world-news") {
		t.Error("expected equal keys for equivalent names")
	}
}

func TestRegistrableDomain(t *testing.T) {
	// WHAT: eTLD+1 extraction with www stripped.
	// WHY: The domain is the Source unique key; subdomain noise must not
	// split one site into many sources.
	cases := []struct {
		in, want string
	}{
		{"https://www.example.com/world", "example.com"},
		{"https://news.example.co.uk/politics", "example.co.uk"},
		{"http://example.com", "example.com"},
	}
	for _, tc := range cases {
		got, err := RegistrableDomain(tc.in)
		if err != nil {
			t.Fatalf("RegistrableDomain(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSourceName(t *testing.T) {
	// WHAT: Display name is the second-to-last domain label, capitalized.
	cases := []struct {
		in, want string
	}{
		{"news.example.com", "Example"},
		{"example.com", "Example"},
		{"www.dailyplanet.org", "Dailyplanet"},
		{"localhost", "Localhost"},
		// Multibyte initials stay valid UTF-8.
		{"émission.fr", "Émission"},
		{"朝日.jp", "朝日"},
	}
	for _, tc := range cases {
		if got := SourceName(tc.in); got != tc.want {
			t.Errorf("SourceName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitleFromSegment(t *testing.T) {
	// WHAT: Path segments become readable names.
	// WHY: Categories without visible link text are named from their URL.
	if got := TitleFromSegment("world-news"); got != "World News" {
		t.Errorf("got %q, want %q", got, "World News")
	}
	if got := TitleFromSegment("tech_and_science"); got != "Tech And Science" {
		t.Errorf("got %q, want %q", got, "Tech And Science")
	}
	// A multibyte initial is upcased as a rune, not sliced as a byte.
	if got := TitleFromSegment("économie"); got != "Économie" {
		t.Errorf("got %q, want %q", got, "Économie")
	}
}

func TestValidateHTTPURL(t *testing.T) {
	// WHAT: Non-http(s) URLs fail with ErrInvalidURL before any I/O.
	for _, bad := range []string{"", "ftp://example.com/x", "example.com/story", "javascript:void(0)"} {
		err := ValidateHTTPURL(bad)
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("ValidateHTTPURL(%q) = %v, want ErrInvalidURL", bad, err)
		}
	}
	if err := ValidateHTTPURL("https://example.com/story-1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
