package scrape

import (
	"strings"
	"time"

	"github.com/hazyhaar/presswatch/extract"
	"github.com/hazyhaar/presswatch/store"
	"github.com/hazyhaar/presswatch/urlkit"
)

// summaryLen is the content prefix used when no summary was extracted.
const summaryLen = 200

// dateLayouts are tried in order against extracted date strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02/01/2006",
}

// normalize converts raw extracted fields into the canonical Article record.
func (s *Scraper) normalize(url string, fields extract.Fields) *store.Article {
	now := time.Now().UnixMilli()

	content := s.cleaner.Markdown(fields.ContentHTML, url, fields.ContentText)

	summary := fields.Summary
	if summary == "" {
		summary = truncate(fields.ContentText, summaryLen)
	}

	author := fields.Author
	if author == "" {
		author = s.cfg.Defaults.Author
	}
	caption := fields.ImageCaption
	if caption == "" {
		caption = s.cfg.Defaults.Caption
	}
	tags := fields.Tags
	if len(tags) == 0 {
		tags = s.cfg.Defaults.Tags
	}

	domain, _ := urlkit.RegistrableDomain(url)

	return &store.Article{
		Title:          fields.Title,
		Summary:        summary,
		Content:        content,
		Author:         author,
		ImageURL:       fields.ImageURL,
		ImageCaption:   caption,
		Tags:           tags,
		ExternalSource: url,
		SourceDomain:   domain,
		SourceID:       urlkit.SourceID(url),
		Slug:           urlkit.Slugify(fields.Title),
		Partition:      store.PartitionUncategorized,
		PublishedAt:    parsePublishedAt(fields.Date, now),
		ScrapedAt:      now,
	}
}

// parsePublishedAt tries the known layouts and falls back to scrape time.
func parsePublishedAt(raw string, fallback int64) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UnixMilli()
		}
	}
	return fallback
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
