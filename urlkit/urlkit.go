// Package urlkit provides the pure URL and naming helpers shared by the
// scraping pipeline: slug derivation, registrable-domain extraction, and the
// category/article URL validators.
package urlkit

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

// ErrInvalidURL is returned for malformed or non-http(s) input URLs.
var ErrInvalidURL = errors.New("urlkit: invalid URL")

var (
	slugDashRun  = regexp.MustCompile(`[^a-z0-9]+`)
	slugTrimDash = regexp.MustCompile(`^-+|-+$`)
)

// Slugify derives a URL-safe slug from a title or name: lowercase, every run
// of non-alphanumeric characters collapsed to a single hyphen, hyphens
// trimmed from both ends.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugDashRun.ReplaceAllString(s, "-")
	return slugTrimDash.ReplaceAllString(s, "")
}

// CategoryKey normalizes a category display name to its storage key.
// Identical names differing only in case or punctuation map to the same key.
func CategoryKey(name string) string {
	return Slugify(name)
}

// RegistrableDomain extracts the eTLD+1 from a URL (publicsuffix rules),
// with any leading "www." stripped. "https://www.news.example.co.uk/world"
// yields "example.co.uk".
func RegistrableDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		// Accept a bare host string too.
		host = strings.ToLower(strings.TrimSpace(rawURL))
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Non-ICANN hosts (e.g. bare intranet names) fall back to the host.
		return host, nil
	}
	return domain, nil
}

// SourceName derives a display name from a domain: the second-to-last
// dot-separated label, capitalized. "news.example.com" → "Example".
func SourceName(domain string) string {
	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")
	labels := strings.Split(domain, ".")
	var label string
	switch {
	case len(labels) >= 2:
		label = labels[len(labels)-2]
	case len(labels) == 1:
		label = labels[0]
	}
	return capitalize(label)
}

// SourceID derives a stable source identifier from an article URL: the
// second-to-last domain label, lowercased. Used when an article is scraped
// outside a full crawl and no persisted source exists yet.
func SourceID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	labels := strings.Split(host, ".")
	if len(labels) >= 2 {
		return labels[len(labels)-2]
	}
	return host
}

// TitleFromSegment converts a URL path segment into a human-readable name:
// hyphens and underscores become spaces, each word is title-cased.
// "world-news" → "World News".
func TitleFromSegment(seg string) string {
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	words := strings.Fields(seg)
	for i, w := range words {
		words[i] = capitalize(strings.ToLower(w))
	}
	return strings.Join(words, " ")
}

// capitalize upper-cases the first rune of s. Slicing the first byte would
// corrupt a multibyte initial, so the rune is decoded first.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ValidateHTTPURL rejects URLs that are malformed or lack an http/https
// scheme. Callers must run it before any navigation so bad input never
// reaches the browser.
func ValidateHTTPURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
