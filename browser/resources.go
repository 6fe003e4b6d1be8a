package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockableResources maps the config's resource names to the CDP types
// Chrome reports during interception.
var blockableResources = map[string]proto.NetworkResourceType{
	"images":      proto.NetworkResourceTypeImage,
	"fonts":       proto.NetworkResourceTypeFont,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
	"media":       proto.NetworkResourceTypeMedia,
	"scripts":     proto.NetworkResourceTypeScript,
}

// blockSet resolves the configured names to CDP types once per driver.
// Unknown names are dropped with a warning rather than failing the driver.
func (c Config) blockSet() map[proto.NetworkResourceType]bool {
	set := make(map[proto.NetworkResourceType]bool, len(c.BlockedResources))
	for _, name := range c.BlockedResources {
		t, ok := blockableResources[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			c.Logger.Warn("browser: unknown blocked resource type", "type", name)
			continue
		}
		set[t] = true
	}
	return set
}

// blockRequests fails every request whose resource type is in the driver's
// block set before it leaves Chrome. Images, fonts and stylesheets are most
// of a news page's weight and none of its DOM.
func (d *Driver) blockRequests(page *rod.Page) {
	if len(d.blocked) == 0 {
		return
	}
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if d.blocked[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}
