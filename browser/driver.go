// Package browser manages the headless Chrome substrate for scraping: launch
// with anti-detection flags, stealth page creation, resource blocking, and
// navigation with timeouts. Every scraper component opens short-lived
// Sessions through a shared Driver.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNavigation marks a page that failed to load within the navigation
// timeout or at all.
var ErrNavigation = errors.New("browser: navigation failed")

// Proxy configures an optional upstream HTTP proxy.
type Proxy struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config configures the browser Driver.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string `yaml:"remote_url"`

	// NavTimeout bounds every navigation and in-page evaluation. Default: 10s.
	NavTimeout time.Duration `yaml:"nav_timeout"`

	// SettleDelay is the fixed wait after navigation, allowing
	// client-rendered menus and lazy content to appear. Default: 1.5s.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// UserAgent sent by every page. Default: a realistic desktop Chrome UA.
	UserAgent string `yaml:"user_agent"`

	// ViewportWidth/ViewportHeight set the emulated viewport. Default: 1366x768.
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// BlockedResources lists resource types to block (images, fonts,
	// stylesheets, media). Default: images, fonts, stylesheets.
	BlockedResources []string `yaml:"blocked_resources"`

	// Proxy routes page traffic through an upstream HTTP proxy.
	Proxy Proxy `yaml:"proxy"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 10 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 1500 * time.Millisecond
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1366
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 768
	}
	if c.BlockedResources == nil {
		c.BlockedResources = []string{"images", "fonts", "stylesheets"}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Driver owns one Chrome process and hands out Sessions.
type Driver struct {
	cfg     Config
	blocked map[proto.NetworkResourceType]bool
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewDriver creates a Driver. Call Start to launch Chrome.
func NewDriver(cfg Config) *Driver {
	cfg.defaults()
	return &Driver{cfg: cfg, blocked: cfg.blockSet()}
}

// Start launches Chrome (or connects to a remote instance).
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("browser: driver is closed")
	}
	if d.browser != nil {
		return nil
	}

	var wsURL string
	if d.cfg.RemoteURL != "" {
		wsURL = d.cfg.RemoteURL
		d.cfg.Logger.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(true)

		// Anti-detection flags.
		l = l.Set("disable-blink-features", "AutomationControlled")
		l = l.Set("no-first-run").Set("no-default-browser-check")

		if d.cfg.Proxy.URL != "" {
			l = l.Proxy(d.cfg.Proxy.URL)
		}

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		d.lnch = l
		d.cfg.Logger.Info("browser: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		d.cfg.Logger.Warn("browser: ignore cert errors failed", "error", err)
	}

	// Answer proxy auth challenges for every page.
	if d.cfg.Proxy.URL != "" && d.cfg.Proxy.Username != "" {
		go func() {
			if err := b.HandleAuth(d.cfg.Proxy.Username, d.cfg.Proxy.Password)(); err != nil {
				d.cfg.Logger.Warn("browser: proxy auth handler exited", "error", err)
			}
		}()
	}

	d.browser = b
	return nil
}

// Config returns the driver configuration (read-only by convention).
func (d *Driver) Config() Config {
	return d.cfg
}

// Close shuts down Chrome. Safe to call more than once.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.browser != nil {
		d.browser.Close()
		d.browser = nil
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
		d.lnch = nil
	}
	return nil
}

func (d *Driver) rodBrowser() (*rod.Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.browser == nil {
		return nil, fmt.Errorf("browser: driver not started")
	}
	return d.browser, nil
}
