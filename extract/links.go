package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/presswatch/urlkit"
)

// Link is one harvested anchor with its resolved absolute URL.
type Link struct {
	URL   string
	Text  string
	Title string // the anchor's title attribute
}

// Links harvests anchors matched by the ordered selector list, resolving
// hrefs against baseURL. Unlike field extraction this is a union across
// selectors: listing pages spread article links over several markups, and
// dedup happens downstream.
func Links(doc *goquery.Document, selectors []string, baseURL string) []Link {
	seen := make(map[string]bool)
	var out []Link

	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			abs := urlkit.Resolve(baseURL, href)
			if abs == "" || seen[abs] {
				return
			}
			seen[abs] = true
			out = append(out, Link{
				URL:   abs,
				Text:  strings.TrimSpace(s.Text()),
				Title: strings.TrimSpace(s.AttrOr("title", "")),
			})
		})
	}
	return out
}

// FirstLink returns the first anchor matched by any selector in order, or a
// zero Link. Used for next-page discovery where only one target matters.
func FirstLink(doc *goquery.Document, selectors []string, baseURL string) Link {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		href, ok := node.Attr("href")
		if !ok {
			continue
		}
		abs := urlkit.Resolve(baseURL, href)
		if abs == "" {
			continue
		}
		return Link{
			URL:   abs,
			Text:  strings.TrimSpace(node.Text()),
			Title: strings.TrimSpace(node.AttrOr("title", "")),
		}
	}
	return Link{}
}

// Parse builds a goquery document from captured HTML.
func Parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
