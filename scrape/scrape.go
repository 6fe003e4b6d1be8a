// Package scrape fetches one article page and turns it into a canonical
// Article record: navigate on DOMContentLoaded, settle, scroll to the
// midpoint for lazy content, run the field extractor, normalize. The
// scraper is the only component with built-in retry — callers must not
// retry around it.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/presswatch/browser"
	"github.com/hazyhaar/presswatch/cleanse"
	"github.com/hazyhaar/presswatch/extract"
	"github.com/hazyhaar/presswatch/store"
	"github.com/hazyhaar/presswatch/urlkit"
)

// ErrExtraction marks an article whose required fields could not be
// extracted after all retries.
var ErrExtraction = errors.New("scrape: extraction failed")

// MinTitleLen is the shortest acceptable article title.
const MinTitleLen = 5

// Defaults fill fields whose every selector failed.
type Defaults struct {
	Author  string   `yaml:"author"`
	Caption string   `yaml:"caption"`
	Tags    []string `yaml:"tags"`
}

// Config configures the scraper.
type Config struct {
	// Selectors is the per-field fallback table. Zero fields use the
	// built-in chains.
	Selectors extract.SelectorTable `yaml:"selectors"`

	// MaxRetries is the number of retries after the first attempt. Default: 2.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the fixed wait between attempts. Default: 2s.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// Defaults for author/caption/tags when extraction comes up empty.
	Defaults Defaults `yaml:"defaults"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.Defaults.Author == "" {
		c.Defaults.Author = "Staff Writer"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Scraper fetches and normalizes single articles.
type Scraper struct {
	cfg      Config
	cleaner  *cleanse.Cleaner
	loadPage func(ctx context.Context, url string) (*goquery.Document, error)
}

// NewScraper creates a Scraper.
func NewScraper(driver *browser.Driver, cfg Config) *Scraper {
	cfg.defaults()
	s := &Scraper{cfg: cfg, cleaner: cleanse.New()}
	s.loadPage = func(ctx context.Context, url string) (*goquery.Document, error) {
		session, err := driver.OpenSession(ctx)
		if err != nil {
			return nil, err
		}
		defer session.Close()

		// DOMContentLoaded, not full load: article text renders early and
		// waiting for every ad pixel wastes the politeness budget.
		if err := session.Navigate(ctx, url, true); err != nil {
			return nil, err
		}
		session.Settle(ctx)
		if err := session.ScrollMiddle(ctx); err != nil {
			cfg.Logger.Debug("scrape: scroll failed", "url", url, "error", err)
		}

		html, err := session.HTML(ctx)
		if err != nil {
			return nil, err
		}
		return extract.Parse(html)
	}
	return s
}

// Scrape fetches one article. Non-http(s) URLs fail with urlkit.ErrInvalidURL
// before any navigation. Navigation and extraction errors are retried up to
// MaxRetries times with a fixed delay; a still-missing title after the last
// attempt fails with ErrExtraction.
func (s *Scraper) Scrape(ctx context.Context, url string) (*store.Article, error) {
	if err := urlkit.ValidateHTTPURL(url); err != nil {
		return nil, err
	}
	log := s.cfg.Logger.With("url", url)

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Info("scrape: retrying", "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(s.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, fmt.Errorf("scrape: %w", ctx.Err())
			}
		}

		article, err := s.attempt(ctx, url)
		if err == nil {
			return article, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *Scraper) attempt(ctx context.Context, url string) (*store.Article, error) {
	doc, err := s.loadPage(ctx, url)
	if err != nil {
		return nil, err
	}

	fields := extract.Extract(doc, s.cfg.Selectors)
	if len(fields.Title) < MinTitleLen {
		return nil, fmt.Errorf("%w: title %q too short", ErrExtraction, fields.Title)
	}
	return s.normalize(url, fields), nil
}
