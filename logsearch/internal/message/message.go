// Package message is the request/response contract between a caller (the
// HTTP API, an MCP tool, a test) and a running Finder. A request names an
// action and carries that action's payload; the router decodes the payload
// into its typed form and answers with either a result or an error.
package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/logsearch/logsearch/match"
)

// ErrUnknownAction is returned for a request whose action has no handler.
var ErrUnknownAction = errors.New("unknown action")

// Kind names a request action.
type Kind string

const (
	KindSearch          Kind = "search"
	KindScanOnce        Kind = "scanOnce"
	KindSearchSelected  Kind = "searchSelected"
	KindClearHighlights Kind = "clearHighlights"
	KindGetPageInfo     Kind = "getPageInfo"
	KindScrollTo        Kind = "scrollToPosition"
)

// Request is one inbound message.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Action  Kind            `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers a Request. Exactly one of Result and Error is set.
type Response struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SearchPayload is the payload of search, scanOnce and searchSelected.
type SearchPayload struct {
	SearchTerm string `json:"searchTerm"`
}

// ScrollPayload is the payload of scrollToPosition.
type ScrollPayload struct {
	Position match.Position `json:"position"`
}

// Empty is the payload of actions that take none.
type Empty struct{}

// Handler serves one action.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// Chain composes middlewares; the first one is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(h Handler) Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

// Typed adapts a function taking a decoded payload to a Handler. An empty
// payload decodes to the zero P.
func Typed[P any](fn func(ctx context.Context, p P) (any, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p P
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid payload: %w", err)
			}
		}
		return fn(ctx, p)
	}
}

// Router maps actions to handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
	mw       []Middleware
	logger   *slog.Logger
}

// NewRouter creates an empty Router. Middlewares wrap every handler.
func NewRouter(logger *slog.Logger, mws ...Middleware) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{handlers: make(map[Kind]Handler), mw: mws, logger: logger}
}

// Handle registers h for kind, replacing any earlier handler.
func (r *Router) Handle(kind Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = Chain(r.mw...)(h)
}

// Kinds returns the registered actions, sorted.
func (r *Router) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Dispatch serves req. It never returns a Go error: failures are carried in
// Response.Error. A request without an ID is assigned a UUIDv7.
func (r *Router) Dispatch(ctx context.Context, req Request) Response {
	if req.ID == "" {
		req.ID = uuid.Must(uuid.NewV7()).String()
	}
	resp := Response{ID: req.ID}

	r.mu.RLock()
	h, ok := r.handlers[req.Action]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("message: unknown action", "id", req.ID, "action", req.Action)
		resp.Error = ErrUnknownAction.Error()
		return resp
	}

	start := time.Now()
	res, err := h(WithRequestID(ctx, req.ID), req.Payload)
	if err != nil {
		r.logger.Warn("message: action failed", "id", req.ID, "action", req.Action, "error", err)
		resp.Error = err.Error()
		return resp
	}
	r.logger.Debug("message: action done", "id", req.ID, "action", req.Action, "elapsed", time.Since(start))
	resp.Result = res
	return resp
}

// DispatchJSON decodes a JSON request and dispatches it.
func (r *Router) DispatchJSON(ctx context.Context, data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Response{ID: uuid.Must(uuid.NewV7()).String(), Error: fmt.Sprintf("invalid request: %v", err)}
	}
	return r.Dispatch(ctx, req)
}

type ctxKey struct{}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

// Recover turns a handler panic into an error so one bad action cannot
// take the serving process down.
func Recover(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, p json.RawMessage) (res any, err error) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("message: handler panic", "id", RequestID(ctx), "panic", v)
					err = fmt.Errorf("internal error: %v", v)
				}
			}()
			return next(ctx, p)
		}
	}
}
