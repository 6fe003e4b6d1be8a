// Package detect discovers a news site's category sections from its
// homepage: navigation anchors are harvested from the rendered DOM, filtered
// down to same-host single-segment links, and named from link text or the
// URL path.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/presswatch/browser"
	"github.com/hazyhaar/presswatch/extract"
	"github.com/hazyhaar/presswatch/urlkit"
)

// CategoryLink is one detected category section.
type CategoryLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SourceInfo identifies the site a detection ran against.
type SourceInfo struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	HomepageURL string `json:"homepage_url"`
}

// Result is the ephemeral detection outcome consumed by the orchestrator.
type Result struct {
	Source     SourceInfo     `json:"source"`
	Categories []CategoryLink `json:"categories"`
}

// Config configures detection.
type Config struct {
	// MenuSelectors are scanned first: dedicated category menus beat
	// generic navigation noise.
	MenuSelectors []string `yaml:"menu_selectors"`

	// NavSelectors are the broader generic navigation-link selectors.
	NavSelectors []string `yaml:"nav_selectors"`

	// MaxCategories caps the result. Default: 50.
	MaxCategories int `yaml:"max_categories"`

	// MinNameLen/MaxNameLen bound acceptable category names. Defaults: 3, 49.
	MinNameLen int `yaml:"min_name_len"`
	MaxNameLen int `yaml:"max_name_len"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if len(c.MenuSelectors) == 0 {
		c.MenuSelectors = []string{
			"ul.category-menu > li > a",
			"nav.main-menu > ul > li > a",
			".menu-categories a",
		}
	}
	if len(c.NavSelectors) == 0 {
		c.NavSelectors = []string{
			"nav a",
			"header a",
			".navbar a",
			".nav-menu a",
			".main-nav a",
			"#menu a",
			".menu a",
		}
	}
	if c.MaxCategories <= 0 {
		c.MaxCategories = 50
	}
	if c.MinNameLen <= 0 {
		c.MinNameLen = 3
	}
	if c.MaxNameLen <= 0 {
		c.MaxNameLen = 49
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Detector runs homepage category detection through a shared browser driver.
type Detector struct {
	cfg     Config
	capture func(ctx context.Context, url string) (html, title string, err error)
}

// NewDetector creates a Detector.
func NewDetector(driver *browser.Driver, cfg Config) *Detector {
	cfg.defaults()
	d := &Detector{cfg: cfg}
	d.capture = func(ctx context.Context, url string) (string, string, error) {
		session, err := driver.OpenSession(ctx)
		if err != nil {
			return "", "", err
		}
		defer session.Close()

		if err := session.Navigate(ctx, url, false); err != nil {
			return "", "", err
		}
		// Client-rendered menus need a beat to appear.
		session.Settle(ctx)

		html, err := session.HTML(ctx)
		if err != nil {
			return "", "", err
		}
		title, err := session.Title(ctx)
		if err != nil {
			title = ""
		}
		return html, title, nil
	}
	return d
}

// Detect loads the homepage and returns the detected source identity and
// category list. Fails with a browser.ErrNavigation-wrapped error when the
// homepage cannot be loaded; the session is closed on every path.
func (d *Detector) Detect(ctx context.Context, homepageURL string) (*Result, error) {
	if err := urlkit.ValidateHTTPURL(homepageURL); err != nil {
		return nil, err
	}

	html, pageTitle, err := d.capture(ctx, homepageURL)
	if err != nil {
		return nil, fmt.Errorf("detect: homepage %s: %w", homepageURL, err)
	}

	doc, err := extract.Parse(html)
	if err != nil {
		return nil, fmt.Errorf("detect: parse homepage: %w", err)
	}

	// Menu selectors first, generic navigation second; Links dedups by URL
	// across both passes.
	selectors := append(append([]string{}, d.cfg.MenuSelectors...), d.cfg.NavSelectors...)
	links := extract.Links(doc, selectors, homepageURL)
	categories := d.filterCategories(homepageURL, links)

	domain, err := urlkit.RegistrableDomain(homepageURL)
	if err != nil {
		return nil, err
	}

	name := urlkit.SourceName(domain)
	if name == "" {
		name = sourceNameFromTitle(pageTitle)
	}

	d.cfg.Logger.Info("detect: homepage scanned",
		"url", homepageURL, "links", len(links), "categories", len(categories))

	return &Result{
		Source:     SourceInfo{Name: name, Domain: domain, HomepageURL: homepageURL},
		Categories: categories,
	}, nil
}

// filterCategories applies the acceptance rules: valid single-segment
// same-host URL, resolvable name within bounds, case-insensitive name dedup,
// capped count.
func (d *Detector) filterCategories(homepageURL string, links []extract.Link) []CategoryLink {
	seen := make(map[string]bool)
	var out []CategoryLink

	for _, link := range links {
		if len(out) >= d.cfg.MaxCategories {
			break
		}
		if !urlkit.ValidateCategoryURL(link.URL, homepageURL) {
			continue
		}

		name := resolveName(link, d.cfg.MaxNameLen)
		if len(name) < d.cfg.MinNameLen || len(name) > d.cfg.MaxNameLen {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, CategoryLink{Name: name, URL: link.URL})
	}
	return out
}

// resolveName prefers visible link text, then the anchor's title attribute,
// then a title-cased URL path segment.
func resolveName(link extract.Link, maxLen int) string {
	if t := strings.TrimSpace(link.Text); t != "" && len(t) <= maxLen {
		return t
	}
	if t := strings.TrimSpace(link.Title); t != "" && len(t) <= maxLen {
		return t
	}
	if seg := urlkit.CategorySegment(link.URL); seg != "" {
		return urlkit.TitleFromSegment(seg)
	}
	return ""
}

// sourceNameFromTitle falls back to the page title's first meaningful
// fragment ("Example News - Home" → "Example News").
func sourceNameFromTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range []string{" - ", " | ", " – "} {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return title
}
