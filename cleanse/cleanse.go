// Package cleanse turns extracted article HTML into storable text: a strict
// sanitization pass first, then markdown conversion with a plain-text
// fallback when conversion fails or produces nothing.
package cleanse

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

// Cleaner sanitizes and converts article body HTML.
type Cleaner struct {
	policy *bluemonday.Policy
	md     *converter.Converter
}

// New creates a Cleaner with a UGC sanitization policy: structural and
// inline markup survives, scripts, styles, and event handlers do not.
func New() *Cleaner {
	return &Cleaner{
		policy: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Markdown sanitizes html and converts it to markdown, resolving relative
// links against sourceURL. Returns fallback when html is empty or the
// conversion yields nothing usable.
func (c *Cleaner) Markdown(html, sourceURL, fallback string) string {
	if strings.TrimSpace(html) == "" {
		return fallback
	}
	clean := c.policy.Sanitize(html)
	result, err := c.md.ConvertString(clean, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(result) == "" {
		return fallback
	}
	return strings.TrimSpace(result)
}

// Sanitize strips dangerous markup without converting.
func (c *Cleaner) Sanitize(html string) string {
	return strings.TrimSpace(c.policy.Sanitize(html))
}
