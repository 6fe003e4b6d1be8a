package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
db_path: /var/lib/presswatch/data.db
log_level: debug
browser:
  nav_timeout: 15s
  settle_delay: 2s
  viewport_width: 1920
  viewport_height: 1080
  proxy:
    url: http://proxy.internal:3128
scrape:
  max_retries: 3
  retry_delay: 1500ms
  defaults:
    author: Newsroom
classify:
  endpoint: https://workflows.internal/classify
  timeout: 60s
crawler:
  max_articles_per_category: 5
  article_delay: 3s
scheduler:
  homepages:
    - https://news.example/
  interval: 30m
server:
  addr: ":9090"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presswatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	// WHAT: Duration strings, nested sections and scalars all land in the
	// right component configs.
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DBPath != "/var/lib/presswatch/data.db" || cfg.LogLevel != "debug" {
		t.Errorf("top level = %q %q", cfg.DBPath, cfg.LogLevel)
	}
	if cfg.Browser.NavTimeout != 15*time.Second || cfg.Browser.ViewportWidth != 1920 {
		t.Errorf("browser = %+v", cfg.Browser)
	}
	if cfg.Browser.Proxy.URL != "http://proxy.internal:3128" {
		t.Errorf("proxy = %+v", cfg.Browser.Proxy)
	}
	if cfg.Scrape.MaxRetries != 3 || cfg.Scrape.RetryDelay != 1500*time.Millisecond {
		t.Errorf("scrape = %+v", cfg.Scrape)
	}
	if cfg.Scrape.Defaults.Author != "Newsroom" {
		t.Errorf("scrape defaults = %+v", cfg.Scrape.Defaults)
	}
	if cfg.Classify.Endpoint == "" || cfg.Classify.Timeout != time.Minute {
		t.Errorf("classify = %+v", cfg.Classify)
	}
	if cfg.Limits.MaxArticlesPerCategory != 5 || cfg.Limits.ArticleDelay != 3*time.Second {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	if len(cfg.Scheduler.Homepages) != 1 || cfg.Scheduler.Interval != 30*time.Minute {
		t.Errorf("scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	// WHAT: A nonexistent path is not fatal; the result is usable.
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "presswatch.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	// WHAT: A malformed duration is reported, not silently zeroed.
	_, err := Load(writeConfig(t, "browser:\n  nav_timeout: soon\n"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	// WHAT: Environment variables beat file values.
	t.Setenv("PRESSWATCH_DB_PATH", "/tmp/override.db")
	t.Setenv("PRESSWATCH_ADDR", ":7777")
	t.Setenv("PRESSWATCH_CLASSIFY_ENDPOINT", "https://other.internal/classify")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Classify.Endpoint != "https://other.internal/classify" {
		t.Errorf("endpoint = %q", cfg.Classify.Endpoint)
	}
}
