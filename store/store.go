package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/presswatch/urlkit"
)

// Store wraps the presswatch database.
type Store struct {
	DB    *sql.DB
	newID func() string
}

// NewStore creates a Store from an already-opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:    db,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// UpsertSource inserts a source or, when the domain already exists, touches
// its last_scraped_at. Never creates a second row for the same domain.
func (s *Store) UpsertSource(ctx context.Context, src *Source) (*Source, error) {
	existing, err := s.GetSourceByDomain(ctx, src.Domain)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()

	if existing != nil {
		_, err := s.DB.ExecContext(ctx,
			`UPDATE sources SET last_scraped_at = ?, status = 'active' WHERE id = ?`,
			now, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("store: touch source: %w", err)
		}
		existing.LastScrapedAt = now
		existing.Status = "active"
		return existing, nil
	}

	out := *src
	out.ID = "src_" + s.newID()
	out.Status = "active"
	out.CreatedAt = now
	out.LastScrapedAt = now

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO sources (id, name, domain, homepage_url, logo_url, status, last_scraped_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.Name, out.Domain, out.HomepageURL, out.LogoURL, out.Status, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent run; the winner's row is ours.
			return s.UpsertSource(ctx, src)
		}
		return nil, fmt.Errorf("store: insert source: %w", err)
	}
	return &out, nil
}

// GetSourceByDomain returns the source for a domain, or nil.
func (s *Store) GetSourceByDomain(ctx context.Context, domain string) (*Source, error) {
	row := s.DB.QueryRowContext(ctx, sourceColumns+` WHERE domain = ?`, domain)
	return scanSource(row)
}

// GetSource returns a source by ID, or nil.
func (s *Store) GetSource(ctx context.Context, id string) (*Source, error) {
	row := s.DB.QueryRowContext(ctx, sourceColumns+` WHERE id = ?`, id)
	return scanSource(row)
}

// ListSources returns all sources, most recently scraped first.
func (s *Store) ListSources(ctx context.Context) ([]*Source, error) {
	rows, err := s.DB.QueryContext(ctx, sourceColumns+` ORDER BY last_scraped_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list sources: %w", err)
	}
	defer rows.Close()

	var out []*Source
	for rows.Next() {
		src, err := scanSourceRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// UpsertCategory inserts a category or touches the existing (source, slug)
// row. The slug is derived from the name, so case and punctuation variants
// of one category collapse into one row.
func (s *Store) UpsertCategory(ctx context.Context, sourceID, sourceDomain string, name, url string) (*Category, error) {
	slug := urlkit.CategoryKey(name)
	if slug == "" {
		return nil, fmt.Errorf("store: category name %q yields empty slug", name)
	}
	now := time.Now().UnixMilli()

	existing, err := s.getCategoryBySlug(ctx, sourceID, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		_, err := s.DB.ExecContext(ctx,
			`UPDATE categories SET last_scraped_at = ? WHERE id = ?`, now, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("store: touch category: %w", err)
		}
		existing.LastScrapedAt = now
		return existing, nil
	}

	cat := &Category{
		ID:            "cat_" + s.newID(),
		SourceID:      sourceID,
		SourceDomain:  sourceDomain,
		Name:          name,
		Slug:          slug,
		URL:           url,
		LastScrapedAt: now,
		CreatedAt:     now,
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO categories (id, source_id, source_domain, name, slug, url, last_scraped_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cat.ID, cat.SourceID, cat.SourceDomain, cat.Name, cat.Slug, cat.URL, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return s.UpsertCategory(ctx, sourceID, sourceDomain, name, url)
		}
		return nil, fmt.Errorf("store: insert category: %w", err)
	}

	if err := s.IncrementCounter(ctx, "source", sourceID, "category_count", 1); err != nil {
		slog.Warn("store: category counter increment failed", "source_id", sourceID, "error", err)
	}
	return cat, nil
}

// ListCategories returns a source's categories in creation order.
func (s *Store) ListCategories(ctx context.Context, sourceID string) ([]*Category, error) {
	rows, err := s.DB.QueryContext(ctx, categoryColumns+` WHERE source_id = ? ORDER BY created_at`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("store: list categories: %w", err)
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		cat, err := scanCategoryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, rows.Err()
}

// GetCategory returns a category by ID, or nil.
func (s *Store) GetCategory(ctx context.Context, id string) (*Category, error) {
	row := s.DB.QueryRowContext(ctx, categoryColumns+` WHERE id = ?`, id)
	return scanCategory(row)
}

func (s *Store) getCategoryBySlug(ctx context.Context, sourceID, slug string) (*Category, error) {
	row := s.DB.QueryRowContext(ctx,
		categoryColumns+` WHERE source_id = ? AND slug = ?`, sourceID, slug)
	return scanCategory(row)
}

// IncrementCounter adds delta to a counter column. Best-effort: failures are
// returned but callers typically log and continue, since counters are
// derived data.
func (s *Store) IncrementCounter(ctx context.Context, entity, id, field string, delta int64) error {
	tables := map[string]string{"source": "sources", "category": "categories"}
	columns := map[string]bool{"article_count": true, "category_count": true}

	table, ok := tables[entity]
	if !ok || !columns[field] {
		return fmt.Errorf("store: counter %s.%s not allowed", entity, field)
	}
	q := fmt.Sprintf("UPDATE %s SET %s = %s + ? WHERE id = ?", table, field, field)
	if _, err := s.DB.ExecContext(ctx, q, delta, id); err != nil {
		return fmt.Errorf("store: increment %s.%s: %w", entity, field, err)
	}
	return nil
}

const sourceColumns = `SELECT id, name, domain, homepage_url, logo_url, article_count,
	category_count, status, COALESCE(last_scraped_at, 0), created_at FROM sources`

const categoryColumns = `SELECT id, source_id, source_domain, name, slug, url,
	article_count, COALESCE(last_scraped_at, 0), created_at FROM categories`

func scanSource(row *sql.Row) (*Source, error) {
	var src Source
	err := row.Scan(&src.ID, &src.Name, &src.Domain, &src.HomepageURL, &src.LogoURL,
		&src.ArticleCount, &src.CategoryCount, &src.Status, &src.LastScrapedAt, &src.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan source: %w", err)
	}
	return &src, nil
}

func scanSourceRows(rows *sql.Rows) (*Source, error) {
	var src Source
	err := rows.Scan(&src.ID, &src.Name, &src.Domain, &src.HomepageURL, &src.LogoURL,
		&src.ArticleCount, &src.CategoryCount, &src.Status, &src.LastScrapedAt, &src.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: scan source: %w", err)
	}
	return &src, nil
}

func scanCategory(row *sql.Row) (*Category, error) {
	var cat Category
	err := row.Scan(&cat.ID, &cat.SourceID, &cat.SourceDomain, &cat.Name, &cat.Slug,
		&cat.URL, &cat.ArticleCount, &cat.LastScrapedAt, &cat.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan category: %w", err)
	}
	return &cat, nil
}

func scanCategoryRows(rows *sql.Rows) (*Category, error) {
	var cat Category
	err := rows.Scan(&cat.ID, &cat.SourceID, &cat.SourceDomain, &cat.Name, &cat.Slug,
		&cat.URL, &cat.ArticleCount, &cat.LastScrapedAt, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: scan category: %w", err)
	}
	return &cat, nil
}
