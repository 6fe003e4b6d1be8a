package store

import (
	"database/sql"
	"fmt"
)

// Schema is the complete presswatch schema. Dedup keys are enforced here,
// not in application code: sources by domain, categories by (source_id,
// slug), articles by (partition, external_source).
const Schema = `
CREATE TABLE IF NOT EXISTS sources (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    domain           TEXT NOT NULL,
    homepage_url     TEXT NOT NULL,
    logo_url         TEXT NOT NULL DEFAULT '',
    article_count    INTEGER NOT NULL DEFAULT 0,
    category_count   INTEGER NOT NULL DEFAULT 0,
    status           TEXT NOT NULL DEFAULT 'active',
    last_scraped_at  INTEGER,
    created_at       INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_sources_domain ON sources(domain);

CREATE TABLE IF NOT EXISTS categories (
    id               TEXT PRIMARY KEY,
    source_id        TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    source_domain    TEXT NOT NULL,
    name             TEXT NOT NULL,
    slug             TEXT NOT NULL,
    url              TEXT NOT NULL,
    article_count    INTEGER NOT NULL DEFAULT 0,
    last_scraped_at  INTEGER,
    created_at       INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_source_slug ON categories(source_id, slug);

CREATE TABLE IF NOT EXISTS articles (
    id               TEXT PRIMARY KEY,
    partition_key    TEXT NOT NULL,
    title            TEXT NOT NULL,
    summary          TEXT NOT NULL DEFAULT '',
    content          TEXT NOT NULL DEFAULT '',
    author           TEXT NOT NULL DEFAULT '',
    image_url        TEXT NOT NULL DEFAULT '',
    image_caption    TEXT NOT NULL DEFAULT '',
    tags_json        TEXT NOT NULL DEFAULT '[]',
    external_source  TEXT NOT NULL,
    source_domain    TEXT NOT NULL,
    source_id        TEXT NOT NULL DEFAULT '',
    category_id      TEXT NOT NULL DEFAULT '',
    category_name    TEXT NOT NULL DEFAULT '',
    category_slug    TEXT NOT NULL DEFAULT '',
    slug             TEXT NOT NULL DEFAULT '',
    published_at     INTEGER NOT NULL,
    scraped_at       INTEGER NOT NULL,
    created_at       INTEGER NOT NULL,
    ai_classified    INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_partition_source
    ON articles(partition_key, external_source);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source_id, published_at DESC);

-- Search index: title + summary + content, trigger-maintained.
CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts USING fts5(
    title, summary, content, content='articles', content_rowid='rowid',
    tokenize='unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS articles_ai AFTER INSERT ON articles BEGIN
    INSERT INTO articles_fts(rowid, title, summary, content)
    VALUES (new.rowid, new.title, new.summary, new.content);
END;
CREATE TRIGGER IF NOT EXISTS articles_ad AFTER DELETE ON articles BEGIN
    INSERT INTO articles_fts(articles_fts, rowid, title, summary, content)
    VALUES('delete', old.rowid, old.title, old.summary, old.content);
END;
CREATE TRIGGER IF NOT EXISTS articles_au AFTER UPDATE ON articles BEGIN
    INSERT INTO articles_fts(articles_fts, rowid, title, summary, content)
    VALUES('delete', old.rowid, old.title, old.summary, old.content);
    INSERT INTO articles_fts(rowid, title, summary, content)
    VALUES (new.rowid, new.title, new.summary, new.content);
END;
`

// ApplySchema creates all tables, indexes, and triggers.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}
