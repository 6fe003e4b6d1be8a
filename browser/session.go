package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Session wraps one stealth page. Sessions are single-use: open, navigate,
// read, close. Close is idempotent and must run on every exit path — a
// leaked session is a leaked Chrome tab.
type Session struct {
	page      *rod.Page
	cfg       Config
	closeOnce sync.Once
}

// OpenSession creates a new stealth page with resource blocking, the
// configured user-agent, and viewport applied. No navigation happens yet.
func (d *Driver) OpenSession(ctx context.Context) (*Session, error) {
	b, err := d.rodBrowser()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	s := &Session{page: page, cfg: d.cfg}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: d.cfg.UserAgent,
	}); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: set user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             d.cfg.ViewportWidth,
		Height:            d.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: set viewport: %w", err)
	}
	d.blockRequests(page)

	return s, nil
}

// Navigate loads a URL within the driver's navigation timeout. With
// domContentOnly set, it returns as soon as DOMContentLoaded fires instead
// of waiting for the full load event — news pages render their primary
// content early.
func (s *Session) Navigate(ctx context.Context, url string, domContentOnly bool) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	page := s.page.Context(navCtx)

	if domContentOnly {
		wait := page.WaitEvent(&proto.PageDomContentEventFired{})
		if err := page.Navigate(url); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
		}
		wait()
		if navCtx.Err() != nil {
			return fmt.Errorf("%w: %s: %v", ErrNavigation, url, navCtx.Err())
		}
		return nil
	}

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

// Settle sleeps the configured settle delay, bounded by ctx.
func (s *Session) Settle(ctx context.Context) {
	select {
	case <-time.After(s.cfg.SettleDelay):
	case <-ctx.Done():
	}
}

// ScrollBottom scrolls to the bottom of the document to trigger lazy-loaded
// listings.
func (s *Session) ScrollBottom(ctx context.Context) error {
	return s.eval(ctx, `() => window.scrollTo(0, document.body.scrollHeight)`)
}

// ScrollMiddle scrolls to the document midpoint, enough to trigger lazy
// article images and embeds without tripping infinite-scroll footers.
func (s *Session) ScrollMiddle(ctx context.Context) error {
	return s.eval(ctx, `() => window.scrollTo(0, document.body.scrollHeight / 2)`)
}

// HTML returns the rendered document as outer HTML. All selector logic runs
// host-side over this capture; only plain data crosses the page boundary.
func (s *Session) HTML(ctx context.Context) (string, error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	res, err := s.page.Context(evalCtx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: capture DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// Title returns the current document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	res, err := s.page.Context(evalCtx).Eval(`() => document.title`)
	if err != nil {
		return "", fmt.Errorf("browser: read title: %w", err)
	}
	return res.Value.Str(), nil
}

// CurrentURL returns the page's resolved location after redirects.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	res, err := s.page.Context(evalCtx).Eval(`() => window.location.href`)
	if err != nil {
		return "", fmt.Errorf("browser: read location: %w", err)
	}
	return res.Value.Str(), nil
}

// Close releases the page. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.page != nil {
			_ = s.page.Close()
		}
	})
}

func (s *Session) eval(ctx context.Context, js string) error {
	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if _, err := s.page.Context(evalCtx).Eval(js); err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	return nil
}
