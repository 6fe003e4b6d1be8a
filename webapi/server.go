// Package webapi exposes the pipeline over a thin chi REST surface. Every
// response is a {success, message?, data?} envelope; validation failures
// map to 400, missing records to 404, anything else to 500.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/presswatch/crawler"
	"github.com/hazyhaar/presswatch/detect"
	"github.com/hazyhaar/presswatch/store"
	"github.com/hazyhaar/presswatch/urlkit"
)

// Detector runs homepage category detection.
type Detector interface {
	Detect(ctx context.Context, homepageURL string) (*detect.Result, error)
}

// Runner triggers crawl runs.
type Runner interface {
	RunFullCrawl(ctx context.Context, homepageURL string, opts crawler.Options) (*crawler.Report, error)
	RunCategoryCrawl(ctx context.Context, sourceID, categoryName, categoryURL string, opts crawler.Options) (*crawler.Report, error)
}

// Config tunes the HTTP surface.
type Config struct {
	// Addr is the listen address. Default: ":8084".
	Addr string `yaml:"addr"`
	// TokenHash, when set, is a bcrypt hash every request's bearer token
	// must match. Empty disables authentication.
	TokenHash string `yaml:"token_hash"`
	// CrawlTimeout bounds a synchronous crawl request. Default: 15m.
	CrawlTimeout time.Duration `yaml:"crawl_timeout"`
	Logger       *slog.Logger  `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8084"
	}
	if c.CrawlTimeout <= 0 {
		c.CrawlTimeout = 15 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Server serves the REST API.
type Server struct {
	store    *store.Store
	detector Detector
	runner   Runner
	cfg      Config
	log      *slog.Logger
}

// NewServer wires the API against its collaborators.
func NewServer(st *store.Store, d Detector, r Runner, cfg Config) *Server {
	cfg.defaults()
	return &Server{store: st, detector: d, runner: r, cfg: cfg, log: cfg.Logger}
}

// Router builds the chi route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.TokenHash != "" {
			r.Use(bearerAuth(s.cfg.TokenHash))
		}
		r.Post("/detect", s.handleDetect)
		r.Post("/crawl", s.handleCrawl)
		r.Post("/crawl/category", s.handleCrawlCategory)
		r.Get("/sources", s.handleListSources)
		r.Get("/sources/{id}/categories", s.handleListCategories)
		r.Get("/articles", s.handleListArticles)
		r.Get("/articles/search", s.handleSearch)
		r.Post("/articles/classified", s.handleClassifiedCallback)
	})
	return r
}

// ListenAndServe runs the server until ctx ends, then drains connections.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("api listening", "addr", s.cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB.PingContext(r.Context()); err != nil {
		s.fail(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	s.ok(w, map[string]string{"status": "ok"})
}

type detectRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := urlkit.ValidateHTTPURL(req.URL); err != nil {
		s.fail(w, http.StatusBadRequest, "url must be absolute http(s)")
		return
	}

	res, err := s.detector.Detect(r.Context(), req.URL)
	if err != nil {
		s.internal(w, "detection failed", err)
		return
	}
	s.ok(w, res)
}

type crawlRequest struct {
	HomepageURL string         `json:"homepage_url"`
	Limits      crawler.Limits `json:"limits"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := urlkit.ValidateHTTPURL(req.HomepageURL); err != nil {
		s.fail(w, http.StatusBadRequest, "homepage_url must be absolute http(s)")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CrawlTimeout)
	defer cancel()
	report, err := s.runner.RunFullCrawl(ctx, req.HomepageURL, crawler.Options{Limits: req.Limits})
	if err != nil {
		s.internal(w, "crawl failed", err)
		return
	}
	s.ok(w, report)
}

type categoryCrawlRequest struct {
	SourceID     string         `json:"source_id"`
	CategoryName string         `json:"category_name"`
	CategoryURL  string         `json:"category_url"`
	Limits       crawler.Limits `json:"limits"`
}

func (s *Server) handleCrawlCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryCrawlRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SourceID == "" || req.CategoryName == "" {
		s.fail(w, http.StatusBadRequest, "source_id and category_name are required")
		return
	}
	if err := urlkit.ValidateHTTPURL(req.CategoryURL); err != nil {
		s.fail(w, http.StatusBadRequest, "category_url must be absolute http(s)")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CrawlTimeout)
	defer cancel()
	report, err := s.runner.RunCategoryCrawl(ctx, req.SourceID, req.CategoryName, req.CategoryURL, crawler.Options{Limits: req.Limits})
	if err != nil {
		s.internal(w, "category crawl failed", err)
		return
	}
	s.ok(w, report)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources(r.Context())
	if err != nil {
		s.internal(w, "listing sources failed", err)
		return
	}
	s.ok(w, sources)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	src, err := s.store.GetSource(r.Context(), id)
	if err != nil {
		s.internal(w, "loading source failed", err)
		return
	}
	if src == nil {
		s.fail(w, http.StatusNotFound, "source not found")
		return
	}
	cats, err := s.store.ListCategories(r.Context(), id)
	if err != nil {
		s.internal(w, "listing categories failed", err)
		return
	}
	s.ok(w, cats)
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ArticleFilter{
		SourceID:  q.Get("source_id"),
		Partition: q.Get("category"),
		Limit:     intQuery(q.Get("limit")),
		Offset:    intQuery(q.Get("offset")),
	}
	articles, err := s.store.ListArticles(r.Context(), filter)
	if err != nil {
		s.internal(w, "listing articles failed", err)
		return
	}
	s.ok(w, articles)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.fail(w, http.StatusBadRequest, "q is required")
		return
	}
	hits, err := s.store.SearchArticles(r.Context(), query, intQuery(r.URL.Query().Get("limit")))
	if err != nil {
		s.internal(w, "search failed", err)
		return
	}
	s.ok(w, hits)
}

type classifiedCallback struct {
	ArticleID string `json:"article_id"`
	Category  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"category"`
}

// handleClassifiedCallback lets an external workflow file an article under
// a category after the fact. The article is moved, not copied.
func (s *Server) handleClassifiedCallback(w http.ResponseWriter, r *http.Request) {
	var req classifiedCallback
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ArticleID == "" || req.Category.Name == "" {
		s.fail(w, http.StatusBadRequest, "article_id and category.name are required")
		return
	}

	article, err := s.store.GetArticle(r.Context(), req.ArticleID)
	if err != nil {
		s.internal(w, "loading article failed", err)
		return
	}
	if article == nil {
		s.fail(w, http.StatusNotFound, "article not found")
		return
	}

	cat, err := s.store.UpsertCategory(r.Context(), article.SourceID, article.SourceDomain, req.Category.Name, "")
	if err != nil {
		s.internal(w, "saving category failed", err)
		return
	}
	if err := s.store.AssignCategory(r.Context(), article.ID, cat, true); err != nil {
		s.internal(w, "assigning category failed", err)
		return
	}
	updated, err := s.store.GetArticle(r.Context(), article.ID)
	if err != nil {
		s.internal(w, "reloading article failed", err)
		return
	}
	s.ok(w, updated)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("malformed request body")
	}
	return nil
}

func intQuery(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
