// Package config loads the process configuration: a YAML file merged with
// a handful of environment overrides, materialized once at startup and
// handed to each component's constructor.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/presswatch/browser"
	"github.com/hazyhaar/presswatch/classify"
	"github.com/hazyhaar/presswatch/crawler"
	"github.com/hazyhaar/presswatch/detect"
	"github.com/hazyhaar/presswatch/extract"
	"github.com/hazyhaar/presswatch/harvest"
	"github.com/hazyhaar/presswatch/scrape"
	"github.com/hazyhaar/presswatch/webapi"
)

// Duration parses YAML scalars like "10s" or "1.5s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", raw, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) std() time.Duration { return time.Duration(d) }

// Config is the assembled process configuration.
type Config struct {
	DBPath    string
	LogLevel  string
	Browser   browser.Config
	Detect    detect.Config
	Harvest   harvest.Config
	Scrape    scrape.Config
	Classify  classify.Config
	Limits    crawler.Limits
	Scheduler crawler.SchedulerConfig
	Server    webapi.Config
}

// fileConfig is the YAML shape. Duration fields use the string form
// ("10s"); everything else maps straight onto the component configs.
type fileConfig struct {
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`

	Browser struct {
		RemoteURL        string        `yaml:"remote_url"`
		NavTimeout       Duration      `yaml:"nav_timeout"`
		SettleDelay      Duration      `yaml:"settle_delay"`
		UserAgent        string        `yaml:"user_agent"`
		ViewportWidth    int           `yaml:"viewport_width"`
		ViewportHeight   int           `yaml:"viewport_height"`
		BlockedResources []string      `yaml:"blocked_resources"`
		Proxy            browser.Proxy `yaml:"proxy"`
	} `yaml:"browser"`

	Detect  detect.Config  `yaml:"detect"`
	Harvest harvest.Config `yaml:"harvest"`

	Scrape struct {
		Selectors  extract.SelectorTable `yaml:"selectors"`
		MaxRetries int                   `yaml:"max_retries"`
		RetryDelay Duration              `yaml:"retry_delay"`
		Defaults   scrape.Defaults       `yaml:"defaults"`
	} `yaml:"scrape"`

	Classify struct {
		Endpoint string   `yaml:"endpoint"`
		Timeout  Duration `yaml:"timeout"`
	} `yaml:"classify"`

	Crawler struct {
		MaxCategoriesPerSource int      `yaml:"max_categories_per_source"`
		MaxPagesPerCategory    int      `yaml:"max_pages_per_category"`
		MaxArticlesPerCategory int      `yaml:"max_articles_per_category"`
		MaxArticlesPerSource   int      `yaml:"max_articles_per_source"`
		ArticleDelay           Duration `yaml:"article_delay"`
	} `yaml:"crawler"`

	Scheduler struct {
		Homepages []string `yaml:"homepages"`
		Interval  Duration `yaml:"interval"`
	} `yaml:"scheduler"`

	Server struct {
		Addr         string   `yaml:"addr"`
		TokenHash    string   `yaml:"token_hash"`
		CrawlTimeout Duration `yaml:"crawl_timeout"`
	} `yaml:"server"`
}

// Load reads the YAML file at path, applies environment overrides and
// returns the assembled configuration. A missing file is not an error:
// the result is defaults plus environment.
func Load(path string) (*Config, error) {
	var fc fileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// run on defaults
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &fc); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		DBPath:   fc.DBPath,
		LogLevel: fc.LogLevel,
		Browser: browser.Config{
			RemoteURL:        fc.Browser.RemoteURL,
			NavTimeout:       fc.Browser.NavTimeout.std(),
			SettleDelay:      fc.Browser.SettleDelay.std(),
			UserAgent:        fc.Browser.UserAgent,
			ViewportWidth:    fc.Browser.ViewportWidth,
			ViewportHeight:   fc.Browser.ViewportHeight,
			BlockedResources: fc.Browser.BlockedResources,
			Proxy:            fc.Browser.Proxy,
		},
		Detect:  fc.Detect,
		Harvest: fc.Harvest,
		Scrape: scrape.Config{
			Selectors:  fc.Scrape.Selectors,
			MaxRetries: fc.Scrape.MaxRetries,
			RetryDelay: fc.Scrape.RetryDelay.std(),
			Defaults:   fc.Scrape.Defaults,
		},
		Classify: classify.Config{
			Endpoint: fc.Classify.Endpoint,
			Timeout:  fc.Classify.Timeout.std(),
		},
		Limits: crawler.Limits{
			MaxCategoriesPerSource: fc.Crawler.MaxCategoriesPerSource,
			MaxPagesPerCategory:    fc.Crawler.MaxPagesPerCategory,
			MaxArticlesPerCategory: fc.Crawler.MaxArticlesPerCategory,
			MaxArticlesPerSource:   fc.Crawler.MaxArticlesPerSource,
			ArticleDelay:           fc.Crawler.ArticleDelay.std(),
		},
		Scheduler: crawler.SchedulerConfig{
			Homepages: fc.Scheduler.Homepages,
			Interval:  fc.Scheduler.Interval.std(),
		},
		Server: webapi.Config{
			Addr:         fc.Server.Addr,
			TokenHash:    fc.Server.TokenHash,
			CrawlTimeout: fc.Server.CrawlTimeout.std(),
		},
	}
	cfg.applyEnv()
	if cfg.DBPath == "" {
		cfg.DBPath = "presswatch.db"
	}
	return cfg, nil
}

// applyEnv lets deployments override file values without editing it.
func (c *Config) applyEnv() {
	if v := os.Getenv("PRESSWATCH_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("PRESSWATCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PRESSWATCH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PRESSWATCH_TOKEN_HASH"); v != "" {
		c.Server.TokenHash = v
	}
	if v := os.Getenv("PRESSWATCH_BROWSER_URL"); v != "" {
		c.Browser.RemoteURL = v
	}
	if v := os.Getenv("PRESSWATCH_CLASSIFY_ENDPOINT"); v != "" {
		c.Classify.Endpoint = v
	}
	if v := os.Getenv("PRESSWATCH_PROXY_URL"); v != "" {
		c.Browser.Proxy.URL = v
	}
	if v := os.Getenv("PRESSWATCH_PROXY_USERNAME"); v != "" {
		c.Browser.Proxy.Username = v
	}
	if v := os.Getenv("PRESSWATCH_PROXY_PASSWORD"); v != "" {
		c.Browser.Proxy.Password = v
	}
}
