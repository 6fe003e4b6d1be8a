// Package extract implements the universal per-field content extractor.
//
// Each logical article field carries an ordered list of candidate CSS or
// meta-tag selectors. Extraction walks the list and returns the first
// non-empty result — first match wins, no scoring, no merging across
// selectors. Selector tables are configuration: the defaults below cover
// common news CMSes and operators can override any field per deployment.
package extract

// SelectorTable holds the ordered candidate selectors for every article
// field. A selector of the form "meta[...]" is read via its content
// attribute; everything else is read as element text.
type SelectorTable struct {
	Title        []string `yaml:"title"`
	Summary      []string `yaml:"summary"`
	Content      []string `yaml:"content"`
	Author       []string `yaml:"author"`
	Image        []string `yaml:"image"`
	ImageCaption []string `yaml:"image_caption"`
	Tags         []string `yaml:"tags"`
	Date         []string `yaml:"date"`
}

// DefaultSelectors returns the built-in fallback chains. Meta tags come
// first where sites reliably populate them (title, summary, image, date);
// visible-DOM selectors follow, broadest last.
func DefaultSelectors() SelectorTable {
	return SelectorTable{
		Title: []string{
			`meta[property="og:title"]`,
			`meta[name="twitter:title"]`,
			"h1.entry-title",
			"h1.article-title",
			"h1.post-title",
			"article h1",
			".article-header h1",
			"h1",
		},
		Summary: []string{
			`meta[property="og:description"]`,
			`meta[name="description"]`,
			`meta[name="twitter:description"]`,
			".article-summary",
			".entry-summary",
			".excerpt",
			"article .lead",
		},
		Content: []string{
			".article-content",
			".entry-content",
			".post-content",
			".article-body",
			".story-body",
			"article .content",
			"article p",
			".content p",
		},
		Author: []string{
			`meta[name="author"]`,
			`meta[property="article:author"]`,
			".author-name",
			".byline",
			`a[rel="author"]`,
			".article-author",
		},
		Image: []string{
			`meta[property="og:image"]`,
			`meta[name="twitter:image"]`,
			"article img",
			".article-content img",
			".featured-image img",
			".post-thumbnail img",
		},
		ImageCaption: []string{
			"figcaption",
			".wp-caption-text",
			".image-caption",
		},
		Tags: []string{
			".tags a",
			".article-tags a",
			".post-tags a",
			`a[rel="tag"]`,
			`meta[name="keywords"]`,
		},
		Date: []string{
			`meta[property="article:published_time"]`,
			`meta[name="date"]`,
			`meta[itemprop="datePublished"]`,
			"time[datetime]",
			".published-date",
			".post-date",
			"time",
		},
	}
}

// merged returns t with empty fields filled from the defaults, so partial
// operator tables only override what they name.
func (t SelectorTable) merged() SelectorTable {
	d := DefaultSelectors()
	pick := func(a, b []string) []string {
		if len(a) > 0 {
			return a
		}
		return b
	}
	return SelectorTable{
		Title:        pick(t.Title, d.Title),
		Summary:      pick(t.Summary, d.Summary),
		Content:      pick(t.Content, d.Content),
		Author:       pick(t.Author, d.Author),
		Image:        pick(t.Image, d.Image),
		ImageCaption: pick(t.ImageCaption, d.ImageCaption),
		Tags:         pick(t.Tags, d.Tags),
		Date:         pick(t.Date, d.Date),
	}
}
