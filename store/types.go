package store

// PartitionUncategorized is the partition articles land in before
// classification assigns them a category.
const PartitionUncategorized = "uncategorized"

// Source is a discovered news site, keyed by registrable domain.
type Source struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Domain        string `json:"domain"`
	HomepageURL   string `json:"homepage_url"`
	LogoURL       string `json:"logo_url,omitempty"`
	ArticleCount  int64  `json:"article_count"`
	CategoryCount int64  `json:"category_count"`
	Status        string `json:"status"`
	LastScrapedAt int64  `json:"last_scraped_at,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

// Category is a topical grouping scoped to one Source. (SourceID, Slug) is
// unique; re-saving touches last_scraped_at instead of duplicating.
type Category struct {
	ID            string `json:"id"`
	SourceID      string `json:"source_id"`
	SourceDomain  string `json:"source_domain"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	URL           string `json:"url"`
	ArticleCount  int64  `json:"article_count"`
	LastScrapedAt int64  `json:"last_scraped_at,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

// Article is one scraped news item. ExternalSource (the canonical page URL)
// is the dedup key within a partition. Duplicate is computed on insert, not
// stored.
type Article struct {
	ID             string   `json:"id"`
	Partition      string   `json:"partition"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary,omitempty"`
	Content        string   `json:"content,omitempty"`
	Author         string   `json:"author,omitempty"`
	ImageURL       string   `json:"image_url,omitempty"`
	ImageCaption   string   `json:"image_caption,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	ExternalSource string   `json:"external_source"`
	SourceDomain   string   `json:"source_domain"`
	SourceID       string   `json:"source_id,omitempty"`
	CategoryID     string   `json:"category_id,omitempty"`
	CategoryName   string   `json:"category_name,omitempty"`
	CategorySlug   string   `json:"category_slug,omitempty"`
	Slug           string   `json:"slug"`
	PublishedAt    int64    `json:"published_at"`
	ScrapedAt      int64    `json:"scraped_at"`
	CreatedAt      int64    `json:"created_at"`
	AIClassified   bool     `json:"ai_classified"`
	Duplicate      bool     `json:"is_duplicate,omitempty"`
}
