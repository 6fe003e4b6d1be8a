package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fields is the raw extraction result. Empty fields mean every candidate
// selector failed; the caller decides whether that is fatal.
type Fields struct {
	Title        string
	Summary      string
	ContentHTML  string
	ContentText  string
	Author       string
	ImageURL     string
	ImageCaption string
	Tags         []string
	Date         string
}

// imageAttrs is the attribute fallback order for <img> candidates. Lazy-load
// attributes come first: when present, src usually holds a placeholder.
var imageAttrs = []string{"data-src", "data-original", "src", "data-lazy-src"}

// Extract runs every field's fallback chain against a captured document and
// returns the first non-empty result per field, in candidate order.
func Extract(doc *goquery.Document, table SelectorTable) Fields {
	t := table.merged()

	f := Fields{
		Title:        firstText(doc, t.Title),
		Summary:      firstText(doc, t.Summary),
		Author:       firstText(doc, t.Author),
		ImageCaption: firstText(doc, t.ImageCaption),
		Date:         firstDate(doc, t.Date),
		ImageURL:     firstImage(doc, t.Image),
		Tags:         firstTags(doc, t.Tags),
	}
	f.ContentHTML, f.ContentText = firstContent(doc, t.Content)
	return f
}

// firstText returns the first candidate's non-empty trimmed text, reading
// meta selectors via their content attribute.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		var val string
		if isMetaSelector(sel) {
			val = doc.Find(sel).First().AttrOr("content", "")
		} else {
			val = doc.Find(sel).First().Text()
		}
		if val = strings.TrimSpace(val); val != "" {
			return val
		}
	}
	return ""
}

// firstDate is firstText plus the datetime attribute preference on <time>
// elements, whose visible text is often a relative phrase ("2 hours ago").
func firstDate(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		var val string
		switch {
		case isMetaSelector(sel):
			val = node.AttrOr("content", "")
		default:
			val = node.AttrOr("datetime", "")
			if strings.TrimSpace(val) == "" {
				val = node.Text()
			}
		}
		if val = strings.TrimSpace(val); val != "" {
			return val
		}
	}
	return ""
}

// firstContent joins every element matched by the first productive candidate.
// Content is the one field where a selector legitimately matches many nodes
// (e.g. "article p"), so matches are concatenated rather than truncated to
// the first element.
func firstContent(doc *goquery.Document, selectors []string) (html, text string) {
	for _, sel := range selectors {
		if isMetaSelector(sel) {
			if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
				return "", v
			}
			continue
		}

		var htmlParts, textParts []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				textParts = append(textParts, t)
				if h, err := goquery.OuterHtml(s); err == nil {
					htmlParts = append(htmlParts, h)
				}
			}
		})
		if len(textParts) > 0 {
			return strings.Join(htmlParts, "\n"), strings.Join(textParts, "\n\n")
		}
	}
	return "", ""
}

// firstImage resolves the first candidate element that carries a usable
// image URL, trying lazy-load attributes before src.
func firstImage(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if isMetaSelector(sel) {
			if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
				return v
			}
			continue
		}
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			for _, attr := range imageAttrs {
				if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
					found = v
					return false
				}
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// firstTags collects link-based tags from the first productive candidate;
// meta keyword candidates are comma-split and trimmed instead.
func firstTags(doc *goquery.Document, selectors []string) []string {
	for _, sel := range selectors {
		if isMetaSelector(sel) {
			content := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
			if content == "" {
				continue
			}
			var tags []string
			for _, t := range strings.Split(content, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
			if len(tags) > 0 {
				return tags
			}
			continue
		}

		var tags []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				tags = append(tags, t)
			}
		})
		if len(tags) > 0 {
			return tags
		}
	}
	return nil
}

func isMetaSelector(sel string) bool {
	return strings.HasPrefix(strings.TrimSpace(sel), "meta[")
}
