package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// applyResourceBlocking fails requests for the named resource types. The
// log table is plain markup, so images, fonts and media only slow down
// every page change.
func applyResourceBlocking(page *rod.Page, types []string) error {
	block := blockSet(types)
	router := page.HijackRequests()

	err := router.Add("*", "", func(h *rod.Hijack) {
		if block[proto.NetworkResourceType(strings.ToLower(string(h.Request.Type())))] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return err
	}

	go router.Run()
	return nil
}

// blockSet maps config names (plural, any case) onto lower-cased CDP
// resource types.
func blockSet(types []string) map[proto.NetworkResourceType]bool {
	set := make(map[proto.NetworkResourceType]bool, len(types))
	for _, t := range types {
		name := strings.ToLower(strings.TrimSpace(t))
		switch name {
		case "images":
			name = "image"
		case "fonts":
			name = "font"
		case "stylesheets":
			name = "stylesheet"
		case "scripts":
			name = "script"
		}
		if name != "" {
			set[proto.NetworkResourceType(name)] = true
		}
	}
	return set
}
