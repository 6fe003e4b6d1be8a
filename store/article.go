package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FindArticleByExternalSource returns the article with the given canonical
// URL within a partition, or nil.
func (s *Store) FindArticleByExternalSource(ctx context.Context, partition, externalSource string) (*Article, error) {
	row := s.DB.QueryRowContext(ctx,
		articleColumns+` WHERE partition_key = ? AND external_source = ?`,
		partition, externalSource)
	return scanArticle(row)
}

// InsertArticle persists a new article into its partition. Duplicate
// detection is atomic: the unique index over (partition, external_source)
// decides, so two concurrent runs scraping the same URL cannot both insert.
// On a duplicate, the existing row is returned with Duplicate set and no
// write happens.
func (s *Store) InsertArticle(ctx context.Context, a *Article) (*Article, error) {
	// Fast path for the common sequential case.
	if existing, err := s.FindArticleByExternalSource(ctx, a.Partition, a.ExternalSource); err != nil {
		return nil, err
	} else if existing != nil {
		existing.Duplicate = true
		return existing, nil
	}

	now := time.Now().UnixMilli()
	out := *a
	if out.ID == "" {
		out.ID = "art_" + s.newID()
	}
	if out.Partition == "" {
		out.Partition = PartitionUncategorized
	}
	if out.CreatedAt == 0 {
		out.CreatedAt = now
	}
	if out.ScrapedAt == 0 {
		out.ScrapedAt = now
	}
	if out.PublishedAt == 0 {
		out.PublishedAt = now
	}

	tags, err := json.Marshal(out.Tags)
	if err != nil {
		return nil, fmt.Errorf("store: marshal tags: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO articles (
			id, partition_key, title, summary, content, author, image_url,
			image_caption, tags_json, external_source, source_domain, source_id,
			category_id, category_name, category_slug, slug, published_at,
			scraped_at, created_at, ai_classified
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		out.ID, out.Partition, out.Title, out.Summary, out.Content, out.Author,
		out.ImageURL, out.ImageCaption, string(tags), out.ExternalSource,
		out.SourceDomain, out.SourceID, out.CategoryID, out.CategoryName,
		out.CategorySlug, out.Slug, out.PublishedAt, out.ScrapedAt,
		out.CreatedAt, boolToInt(out.AIClassified))
	if err != nil {
		if isUniqueViolation(err) {
			existing, ferr := s.FindArticleByExternalSource(ctx, out.Partition, out.ExternalSource)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil {
				existing.Duplicate = true
				return existing, nil
			}
		}
		return nil, fmt.Errorf("store: insert article: %w", err)
	}
	return &out, nil
}

// AssignCategory moves an article into a category's partition and records
// the assignment. A move, not a copy: the uncategorized row is re-homed in
// one UPDATE, so no orphan remains.
func (s *Store) AssignCategory(ctx context.Context, articleID string, cat *Category, aiClassified bool) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE articles
		SET partition_key = ?, category_id = ?, category_name = ?, category_slug = ?, ai_classified = ?
		WHERE id = ?`,
		cat.Slug, cat.ID, cat.Name, cat.Slug, boolToInt(aiClassified), articleID)
	if err != nil {
		return fmt.Errorf("store: assign category: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: assign category: article %s not found", articleID)
	}
	return nil
}

// GetArticle returns an article by ID, or nil.
func (s *Store) GetArticle(ctx context.Context, id string) (*Article, error) {
	row := s.DB.QueryRowContext(ctx, articleColumns+` WHERE id = ?`, id)
	return scanArticle(row)
}

// ArticleFilter narrows ListArticles.
type ArticleFilter struct {
	SourceID  string
	Partition string
	Limit     int
	Offset    int
}

// ListArticles returns articles newest first.
func (s *Store) ListArticles(ctx context.Context, f ArticleFilter) ([]*Article, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	q := articleColumns + ` WHERE 1=1`
	var args []any
	if f.SourceID != "" {
		q += ` AND source_id = ?`
		args = append(args, f.SourceID)
	}
	if f.Partition != "" {
		q += ` AND partition_key = ?`
		args = append(args, f.Partition)
	}
	q += ` ORDER BY published_at DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list articles: %w", err)
	}
	defer rows.Close()

	var out []*Article
	for rows.Next() {
		a, err := scanArticleRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const articleColumns = `SELECT id, partition_key, title, summary, content, author,
	image_url, image_caption, tags_json, external_source, source_domain, source_id,
	category_id, category_name, category_slug, slug, published_at, scraped_at,
	created_at, ai_classified FROM articles`

func scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	var tagsJSON string
	var classified int
	err := row.Scan(&a.ID, &a.Partition, &a.Title, &a.Summary, &a.Content, &a.Author,
		&a.ImageURL, &a.ImageCaption, &tagsJSON, &a.ExternalSource, &a.SourceDomain,
		&a.SourceID, &a.CategoryID, &a.CategoryName, &a.CategorySlug, &a.Slug,
		&a.PublishedAt, &a.ScrapedAt, &a.CreatedAt, &classified)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan article: %w", err)
	}
	finishArticle(&a, tagsJSON, classified)
	return &a, nil
}

func scanArticleRows(rows *sql.Rows) (*Article, error) {
	var a Article
	var tagsJSON string
	var classified int
	err := rows.Scan(&a.ID, &a.Partition, &a.Title, &a.Summary, &a.Content, &a.Author,
		&a.ImageURL, &a.ImageCaption, &tagsJSON, &a.ExternalSource, &a.SourceDomain,
		&a.SourceID, &a.CategoryID, &a.CategoryName, &a.CategorySlug, &a.Slug,
		&a.PublishedAt, &a.ScrapedAt, &a.CreatedAt, &classified)
	if err != nil {
		return nil, fmt.Errorf("store: scan article: %w", err)
	}
	finishArticle(&a, tagsJSON, classified)
	return &a, nil
}

func finishArticle(a *Article, tagsJSON string, classified int) {
	a.AIClassified = classified != 0
	if tagsJSON != "" && tagsJSON != "[]" {
		_ = json.Unmarshal([]byte(tagsJSON), &a.Tags)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
