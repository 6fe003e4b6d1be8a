// Package classify forwards scraped articles to an external workflow
// endpoint and parses back a category assignment. The gateway is a black
// box to the rest of the pipeline: it never returns an error, only a
// Result whose Success flag says whether a real assignment came back.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazyhaar/presswatch/store"
	"github.com/hazyhaar/presswatch/urlkit"
)

// Category is the assignment returned by the workflow endpoint.
type Category struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Result is the outcome of one classification call. A failed call is a
// normal outcome, not an error: the article is simply filed uncategorized.
type Result struct {
	Success  bool     `json:"success"`
	Category Category `json:"category"`
}

// Config tunes the gateway.
type Config struct {
	// Endpoint is the workflow webhook URL. Empty disables classification:
	// every call returns the uncategorized fallback immediately.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds one webhook round trip. Classification runs a
	// language model downstream, so the default is generous.
	Timeout time.Duration `yaml:"timeout"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Gateway calls the external classification workflow.
type Gateway struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

// NewGateway builds a gateway from cfg. A nil-ish cfg (empty endpoint)
// yields a gateway that always falls back.
func NewGateway(cfg Config) *Gateway {
	cfg.defaults()
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    cfg.Logger,
	}
}

// request is the payload posted to the workflow endpoint: the scraped
// article plus the categories already known for its source, so the
// workflow can prefer an existing bucket over inventing a new one.
type request struct {
	Article    articlePayload    `json:"article"`
	Categories []categoryPayload `json:"categories"`
}

type articlePayload struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	SourceDomain string   `json:"source_domain"`
	URL          string   `json:"url"`
}

type categoryPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Uncategorized is the fallback assignment used whenever the workflow is
// unreachable, times out, or answers with something unusable.
func Uncategorized() Result {
	return Result{
		Success:  false,
		Category: Category{Name: "Uncategorized", Slug: store.PartitionUncategorized},
	}
}

// Classify posts the article and known categories to the workflow and
// parses the assignment. It never returns an error: any failure degrades
// to the uncategorized fallback, logged and carried in the Result.
func (g *Gateway) Classify(ctx context.Context, article *store.Article, categories []store.Category) Result {
	if g.cfg.Endpoint == "" {
		return Uncategorized()
	}

	res, err := g.call(ctx, article, categories)
	if err != nil {
		g.log.Warn("classification failed, filing uncategorized",
			"url", article.ExternalSource, "error", err)
		return Uncategorized()
	}
	return res
}

func (g *Gateway) call(ctx context.Context, article *store.Article, categories []store.Category) (Result, error) {
	payload := request{
		Article: articlePayload{
			Title:        article.Title,
			Summary:      article.Summary,
			Tags:         article.Tags,
			SourceDomain: article.SourceDomain,
			URL:          article.ExternalSource,
		},
		Categories: make([]categoryPayload, 0, len(categories)),
	}
	for _, c := range categories {
		payload.Categories = append(payload.Categories, categoryPayload{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("classify: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("classify: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("classify: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("classify: endpoint returned %d", resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("classify: decode: %w", err)
	}
	if !res.Success || res.Category.Name == "" {
		return Result{}, fmt.Errorf("classify: endpoint declined assignment")
	}
	if res.Category.Slug == "" {
		res.Category.Slug = urlkit.CategoryKey(res.Category.Name)
	}
	return res, nil
}
