package urlkit

import (
	"net/url"
	"path"
	"strings"
)

// mediaExtensions are path suffixes that can never be article or category
// pages.
var mediaExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico",
	".css", ".js", ".json", ".xml", ".rss",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip",
	".mp3", ".mp4", ".avi", ".mov", ".webm",
}

// blockedPathFragments mark listing, utility, and boilerplate pages that look
// like article links but are not articles.
var blockedPathFragments = []string{
	"/tag/", "/tags/", "/category/", "/categories/", "/author/", "/page/",
	"/search", "/login", "/register", "/subscribe", "/about", "/contact",
	"/privacy", "/terms",
}

func hasMediaExtension(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, e := range mediaExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ValidateArticleURL reports whether rawURL plausibly points at an article
// on the given base domain. The hostname must contain the base domain
// (www-insensitive), the path must be non-root and at least 5 characters,
// must not end in a media/doc/script extension, and must not contain any
// blocked listing fragment.
func ValidateArticleURL(rawURL, baseDomain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	base := strings.TrimPrefix(strings.ToLower(baseDomain), "www.")
	if base == "" || !strings.Contains(host, base) {
		return false
	}
	p := u.Path
	if p == "" || p == "/" || len(p) < 5 {
		return false
	}
	if hasMediaExtension(p) {
		return false
	}
	lower := strings.ToLower(p)
	for _, frag := range blockedPathFragments {
		if strings.Contains(lower, frag) {
			return false
		}
		// Catch "/about" style fragments at the end of the path too.
		if strings.HasSuffix(lower, strings.TrimSuffix(frag, "/")) {
			return false
		}
	}
	return true
}

// ValidateCategoryURL reports whether rawURL is a plausible category link on
// the homepage's site: resolvable, same hostname, exactly one non-empty path
// segment, no file extension, and not the homepage itself or a pseudo-link
// (#, javascript:, mailto:).
func ValidateCategoryURL(rawURL, homepageURL string) bool {
	raw := strings.TrimSpace(rawURL)
	if raw == "" || raw == "#" {
		return false
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return false
	}

	home, err := url.Parse(homepageURL)
	if err != nil {
		return false
	}
	u, err := home.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !strings.EqualFold(u.Hostname(), home.Hostname()) {
		return false
	}
	if sameResource(u, home) {
		return false
	}
	if hasMediaExtension(u.Path) || path.Ext(u.Path) != "" {
		return false
	}

	segments := nonEmptySegments(u.Path)
	return len(segments) == 1
}

// CategorySegment returns the single path segment of a category URL, or ""
// if the URL does not have exactly one segment.
func CategorySegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := nonEmptySegments(u.Path)
	if len(segments) != 1 {
		return ""
	}
	return segments[0]
}

// Resolve makes href absolute against base. Returns "" when either side is
// unparseable.
func Resolve(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	u, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return u.String()
}

func nonEmptySegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sameResource(a, b *url.URL) bool {
	ap := strings.TrimSuffix(a.Path, "/")
	bp := strings.TrimSuffix(b.Path, "/")
	return strings.EqualFold(a.Hostname(), b.Hostname()) && ap == bp
}
