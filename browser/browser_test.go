package browser

import (
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

func TestConfigDefaults(t *testing.T) {
	// WHAT: Zero-value configs pick up working defaults.
	// WHY: Components construct drivers from partial YAML sections.
	var cfg Config
	cfg.defaults()

	if cfg.NavTimeout != 10*time.Second {
		t.Errorf("NavTimeout = %v", cfg.NavTimeout)
	}
	if cfg.UserAgent == "" {
		t.Error("UserAgent should default to a realistic browser UA")
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		t.Error("viewport should default to a desktop size")
	}
	if len(cfg.BlockedResources) == 0 {
		t.Error("resource blocking should default on")
	}
	if cfg.Logger == nil {
		t.Error("logger should default to slog.Default")
	}
}

func TestBlockSet(t *testing.T) {
	// WHAT: Config names resolve to CDP resource types once per driver;
	// unknown names are dropped, not fatal.
	// WHY: A mismatch here silently disables blocking.
	d := NewDriver(Config{BlockedResources: []string{"Images", " fonts ", "bogus"}})

	if !d.blocked[proto.NetworkResourceTypeImage] || !d.blocked[proto.NetworkResourceTypeFont] {
		t.Errorf("blocked = %v", d.blocked)
	}
	if len(d.blocked) != 2 {
		t.Errorf("unknown names should be dropped, blocked = %v", d.blocked)
	}

	// The default set blocks page weight, never the document or scripts.
	d = NewDriver(Config{})
	for _, want := range []proto.NetworkResourceType{
		proto.NetworkResourceTypeImage,
		proto.NetworkResourceTypeFont,
		proto.NetworkResourceTypeStylesheet,
	} {
		if !d.blocked[want] {
			t.Errorf("default set should block %s", want)
		}
	}
	if d.blocked[proto.NetworkResourceTypeDocument] || d.blocked[proto.NetworkResourceTypeScript] {
		t.Errorf("default set too aggressive: %v", d.blocked)
	}
}

func TestDriverCloseIdempotent(t *testing.T) {
	// WHAT: Close before Start and repeated Close are both safe.
	d := NewDriver(Config{})
	if err := d.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := d.Start(t.Context()); err == nil {
		t.Error("start after close should fail")
	}
}
