package store

import (
	"context"
	"fmt"
	"strings"
)

// SearchHit is the denormalized subset the search index serves.
type SearchHit struct {
	ArticleID    string  `json:"article_id"`
	Title        string  `json:"title"`
	Summary      string  `json:"summary"`
	CategoryName string  `json:"category_name,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	PublishedAt  int64   `json:"published_at"`
	Rank         float64 `json:"rank"`
}

// SearchArticles queries the FTS5 index over title, summary, and content,
// best match first. The index itself is trigger-maintained: every article
// insert/update/delete re-indexes synchronously, which is what makes
// indexing idempotent under duplicate scraping attempts.
func (s *Store) SearchArticles(ctx context.Context, query string, limit int) ([]*SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT a.id, a.title, a.summary, a.category_name, a.image_url,
		       a.published_at, bm25(articles_fts)
		FROM articles_fts
		JOIN articles a ON a.rowid = articles_fts.rowid
		WHERE articles_fts MATCH ?
		ORDER BY bm25(articles_fts)
		LIMIT ?`,
		ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []*SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.ArticleID, &h.Title, &h.Summary, &h.CategoryName,
			&h.ImageURL, &h.PublishedAt, &h.Rank); err != nil {
			return nil, fmt.Errorf("store: scan hit: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

// ftsQuery turns free text into a safe FTS5 match expression: each term
// quoted and prefix-matched, joined with implicit AND.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, "")
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"*`)
	}
	return strings.Join(quoted, " ")
}
