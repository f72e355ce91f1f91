package logsearch

import (
	"context"

	"github.com/hazyhaar/logsearch/logsearch/internal/message"
)

// Request is one message to a Finder: an action name and its payload.
type Request = message.Request

// Response answers a Request with a result or an error.
type Response = message.Response

// Action names accepted by Dispatch.
const (
	ActionSearch          = message.KindSearch
	ActionScanOnce        = message.KindScanOnce
	ActionSearchSelected  = message.KindSearchSelected
	ActionClearHighlights = message.KindClearHighlights
	ActionGetPageInfo     = message.KindGetPageInfo
	ActionScrollTo        = message.KindScrollTo
)

// ErrUnknownAction is the error of a Response to an unregistered action.
var ErrUnknownAction = message.ErrUnknownAction

// Dispatch serves one request.
func (f *Finder) Dispatch(ctx context.Context, req Request) Response {
	return f.router.Dispatch(ctx, req)
}

// DispatchJSON decodes and serves one JSON request.
func (f *Finder) DispatchJSON(ctx context.Context, data []byte) Response {
	return f.router.DispatchJSON(ctx, data)
}

type clearedResult struct {
	Cleared int `json:"cleared"`
}

type scrolledResult struct {
	Scrolled bool `json:"scrolled"`
}

func (f *Finder) registerHandlers() {
	r := f.router
	r.Handle(message.KindSearch, message.Typed(func(ctx context.Context, p message.SearchPayload) (any, error) {
		return f.Search(ctx, p.SearchTerm)
	}))
	r.Handle(message.KindScanOnce, message.Typed(func(ctx context.Context, p message.SearchPayload) (any, error) {
		return f.ScanOnce(ctx, p.SearchTerm)
	}))
	r.Handle(message.KindSearchSelected, message.Typed(func(ctx context.Context, p message.SearchPayload) (any, error) {
		return f.SearchSelected(ctx, p.SearchTerm)
	}))
	r.Handle(message.KindClearHighlights, message.Typed(func(ctx context.Context, _ message.Empty) (any, error) {
		n, err := f.ClearHighlights(ctx)
		if err != nil {
			return nil, err
		}
		return clearedResult{Cleared: n}, nil
	}))
	r.Handle(message.KindGetPageInfo, message.Typed(func(ctx context.Context, _ message.Empty) (any, error) {
		return f.PageInfo(ctx)
	}))
	r.Handle(message.KindScrollTo, message.Typed(func(ctx context.Context, p message.ScrollPayload) (any, error) {
		if err := f.ScrollTo(ctx, p.Position); err != nil {
			return nil, err
		}
		return scrolledResult{Scrolled: true}, nil
	}))
}
