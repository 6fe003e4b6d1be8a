// Package crawler drives the full scraping pipeline for one source:
// detect categories on the homepage, harvest article links per category,
// then scrape, classify and persist each article sequentially. Categories
// and articles within a run are processed one at a time; concurrency
// across runs is the caller's business.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/presswatch/classify"
	"github.com/hazyhaar/presswatch/detect"
	"github.com/hazyhaar/presswatch/harvest"
	"github.com/hazyhaar/presswatch/store"
)

// Detector finds category links on a homepage.
type Detector interface {
	Detect(ctx context.Context, homepageURL string) (*detect.Result, error)
}

// Harvester collects article URLs from a category listing page.
type Harvester interface {
	Harvest(ctx context.Context, categoryURL string, opts harvest.Options) []string
}

// Scraper turns one article URL into a normalized record.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*store.Article, error)
}

// Classifier assigns a category to a scraped article. It never fails;
// an unusable assignment comes back with Success false.
type Classifier interface {
	Classify(ctx context.Context, a *store.Article, categories []store.Category) classify.Result
}

// Archive is the slice of the persistence layer the orchestrator needs.
// *store.Store satisfies it.
type Archive interface {
	UpsertSource(ctx context.Context, src *store.Source) (*store.Source, error)
	GetSource(ctx context.Context, id string) (*store.Source, error)
	UpsertCategory(ctx context.Context, sourceID, sourceDomain, name, url string) (*store.Category, error)
	ListCategories(ctx context.Context, sourceID string) ([]*store.Category, error)
	InsertArticle(ctx context.Context, a *store.Article) (*store.Article, error)
	IncrementCounter(ctx context.Context, entity, id, field string, delta int64) error
}

// Limits caps one crawl run.
type Limits struct {
	MaxCategoriesPerSource int           `yaml:"max_categories_per_source"`
	MaxPagesPerCategory    int           `yaml:"max_pages_per_category"`
	MaxArticlesPerCategory int           `yaml:"max_articles_per_category"`
	MaxArticlesPerSource   int           `yaml:"max_articles_per_source"`
	ArticleDelay           time.Duration `yaml:"article_delay"`
}

func (l *Limits) defaults() {
	if l.MaxCategoriesPerSource <= 0 {
		l.MaxCategoriesPerSource = 5
	}
	if l.MaxPagesPerCategory <= 0 {
		l.MaxPagesPerCategory = 1
	}
	if l.MaxArticlesPerCategory <= 0 {
		l.MaxArticlesPerCategory = 10
	}
	if l.MaxArticlesPerSource <= 0 {
		l.MaxArticlesPerSource = 30
	}
	if l.ArticleDelay <= 0 {
		l.ArticleDelay = 2 * time.Second
	}
}

// Config assembles the orchestrator's collaborators.
type Config struct {
	Limits Limits
	Logger *slog.Logger
}

func (c *Config) defaults() {
	c.Limits.defaults()
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Orchestrator runs the crawl state machine.
type Orchestrator struct {
	detector   Detector
	harvester  Harvester
	scraper    Scraper
	classifier Classifier
	archive    Archive
	cfg        Config
	log        *slog.Logger

	// sleep is swapped in tests to keep politeness delays out of the run time.
	sleep func(ctx context.Context, d time.Duration)
}

// NewOrchestrator wires the pipeline together.
func NewOrchestrator(d Detector, h Harvester, s Scraper, c Classifier, a Archive, cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{
		detector:   d,
		harvester:  h,
		scraper:    s,
		classifier: c,
		archive:    a,
		cfg:        cfg,
		log:        cfg.Logger,
		sleep:      sleepCtx,
	}
}

// Options tunes one run. Zero-value limit fields fall back to the
// orchestrator's configured limits.
type Options struct {
	Limits     Limits
	OnProgress func(Event)
}

func (o *Options) merge(base Limits) {
	if o.Limits.MaxCategoriesPerSource <= 0 {
		o.Limits.MaxCategoriesPerSource = base.MaxCategoriesPerSource
	}
	if o.Limits.MaxPagesPerCategory <= 0 {
		o.Limits.MaxPagesPerCategory = base.MaxPagesPerCategory
	}
	if o.Limits.MaxArticlesPerCategory <= 0 {
		o.Limits.MaxArticlesPerCategory = base.MaxArticlesPerCategory
	}
	if o.Limits.MaxArticlesPerSource <= 0 {
		o.Limits.MaxArticlesPerSource = base.MaxArticlesPerSource
	}
	if o.Limits.ArticleDelay <= 0 {
		o.Limits.ArticleDelay = base.ArticleDelay
	}
}

// RunFullCrawl executes the whole pipeline for one homepage. Per-category
// and per-article failures are recorded in the report and do not stop the
// run; only detection or source persistence failures abort, returning the
// partial report alongside the error.
func (o *Orchestrator) RunFullCrawl(ctx context.Context, homepageURL string, opts Options) (*Report, error) {
	opts.merge(o.cfg.Limits)
	run := newRun(opts)

	run.emit(StageDetecting, homepageURL, "")
	det, err := o.detector.Detect(ctx, homepageURL)
	if err != nil {
		run.report.Error = err.Error()
		return run.finish(), fmt.Errorf("crawler: detect %s: %w", homepageURL, err)
	}
	run.report.Source = det.Source

	run.emit(StageSavingSource, det.Source.Domain, "")
	src, err := o.archive.UpsertSource(ctx, &store.Source{
		Name:        det.Source.Name,
		Domain:      det.Source.Domain,
		HomepageURL: det.Source.HomepageURL,
	})
	if err != nil {
		run.report.Error = err.Error()
		return run.finish(), fmt.Errorf("crawler: save source %s: %w", det.Source.Domain, err)
	}

	categories := det.Categories
	if len(categories) > opts.Limits.MaxCategoriesPerSource {
		categories = categories[:opts.Limits.MaxCategoriesPerSource]
	}

	for _, cl := range categories {
		if ctx.Err() != nil || run.sourceBudgetSpent() {
			break
		}
		o.crawlCategory(ctx, run, src, cl.Name, cl.URL)
	}
	return run.finish(), nil
}

// RunCategoryCrawl processes a single known category of an existing source.
func (o *Orchestrator) RunCategoryCrawl(ctx context.Context, sourceID, categoryName, categoryURL string, opts Options) (*Report, error) {
	opts.merge(o.cfg.Limits)
	run := newRun(opts)

	src, err := o.archive.GetSource(ctx, sourceID)
	if err != nil {
		run.report.Error = err.Error()
		return run.finish(), fmt.Errorf("crawler: load source %s: %w", sourceID, err)
	}
	if src == nil {
		run.report.Error = "source not found"
		return run.finish(), fmt.Errorf("crawler: source %s not found", sourceID)
	}
	run.report.Source = detect.SourceInfo{Name: src.Name, Domain: src.Domain, HomepageURL: src.HomepageURL}

	o.crawlCategory(ctx, run, src, categoryName, categoryURL)
	return run.finish(), nil
}

// crawlCategory upserts the category, harvests its article links and runs
// the per-article pipeline. Failures are contained to this category.
func (o *Orchestrator) crawlCategory(ctx context.Context, run *run, src *store.Source, name, url string) {
	run.emit(StageSavingCategory, name, "")
	cat, err := o.archive.UpsertCategory(ctx, src.ID, src.Domain, name, url)
	if err != nil {
		o.log.Warn("category save failed, skipping", "source", src.Domain, "category", name, "error", err)
		run.report.Categories.Failed++
		return
	}
	run.report.Categories.Processed++

	budget := run.opts.Limits.MaxArticlesPerCategory
	if remaining := run.sourceBudgetLeft(); remaining < budget {
		budget = remaining
	}
	if budget <= 0 {
		return
	}

	run.emit(StageHarvesting, cat.URL, "")
	links := o.harvester.Harvest(ctx, cat.URL, harvest.Options{
		MaxPages:    run.opts.Limits.MaxPagesPerCategory,
		MaxArticles: budget,
		BaseDomain:  src.Domain,
	})

	for _, link := range links {
		if ctx.Err() != nil || run.sourceBudgetSpent() {
			return
		}
		o.processArticle(ctx, run, src, cat, link)
		o.sleep(ctx, run.opts.Limits.ArticleDelay)
	}
}

// processArticle runs scrape → classify → persist for one URL and records
// the outcome. Nothing here is fatal to the run.
func (o *Orchestrator) processArticle(ctx context.Context, run *run, src *store.Source, cat *store.Category, url string) {
	run.emit(StageScraping, url, "")
	article, err := o.scraper.Scrape(ctx, url)
	if err != nil {
		run.record(Detail{URL: url, Category: cat.Name, Status: StatusFailed, Error: err.Error()})
		return
	}
	article.SourceID = src.ID
	article.SourceDomain = src.Domain

	run.emit(StageClassifying, url, article.Title)
	known, err := o.archive.ListCategories(ctx, src.ID)
	if err != nil {
		o.log.Warn("category list unavailable for classification", "source", src.Domain, "error", err)
	}
	cats := make([]store.Category, 0, len(known))
	for _, k := range known {
		cats = append(cats, *k)
	}
	res := o.classifier.Classify(ctx, article, cats)
	o.applyAssignment(ctx, run, src, cat, article, res)

	run.emit(StagePersisting, url, article.Title)
	saved, err := o.archive.InsertArticle(ctx, article)
	if err != nil {
		run.record(Detail{URL: url, Title: article.Title, Category: article.CategoryName, Status: StatusFailed, Error: err.Error()})
		return
	}
	if saved.Duplicate {
		run.record(Detail{URL: url, Title: saved.Title, Category: saved.CategoryName, Status: StatusDuplicate})
		return
	}

	o.bumpCounters(ctx, src.ID, saved.CategoryID)
	run.record(Detail{URL: url, Title: saved.Title, Category: saved.CategoryName, Status: StatusSuccess})
}

// applyAssignment stamps the classification outcome onto the article. A
// failed classification files the article uncategorized; a successful one
// re-homes it under the assigned category, creating the category record
// when the workflow invented a new one.
func (o *Orchestrator) applyAssignment(ctx context.Context, run *run, src *store.Source, current *store.Category, article *store.Article, res classify.Result) {
	if !res.Success {
		fileUncategorized(article)
		return
	}

	assigned := current
	if res.Category.Slug != current.Slug {
		cat, err := o.archive.UpsertCategory(ctx, src.ID, src.Domain, res.Category.Name, "")
		if err != nil {
			o.log.Warn("assigned category save failed, filing uncategorized",
				"source", src.Domain, "category", res.Category.Name, "error", err)
			fileUncategorized(article)
			return
		}
		assigned = cat
	}

	article.Partition = assigned.Slug
	article.CategoryID = assigned.ID
	article.CategoryName = assigned.Name
	article.CategorySlug = assigned.Slug
	article.AIClassified = true
}

// fileUncategorized stamps the fallback category onto the article so the
// persisted record names its partition, not just lives in it.
func fileUncategorized(article *store.Article) {
	fb := classify.Uncategorized().Category
	article.Partition = store.PartitionUncategorized
	article.CategoryID = ""
	article.CategoryName = fb.Name
	article.CategorySlug = fb.Slug
	article.AIClassified = false
}

// bumpCounters is best-effort: a failed increment is logged, never fatal.
func (o *Orchestrator) bumpCounters(ctx context.Context, sourceID, categoryID string) {
	if err := o.archive.IncrementCounter(ctx, "source", sourceID, "article_count", 1); err != nil {
		o.log.Warn("source counter increment failed", "source_id", sourceID, "error", err)
	}
	if categoryID == "" {
		return
	}
	if err := o.archive.IncrementCounter(ctx, "category", categoryID, "article_count", 1); err != nil {
		o.log.Warn("category counter increment failed", "category_id", categoryID, "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
