package sink

import (
	"context"

	"github.com/hazyhaar/logsearch/logsearch/match"
)

// ResultFunc receives a result in-process.
type ResultFunc func(ctx context.Context, res match.Result) error

// Callback hands results to a Go function without serialising them. It is
// how an embedding program consumes results.
type Callback struct {
	fn ResultFunc
}

// NewCallback creates a Callback sink. A nil fn discards results.
func NewCallback(fn ResultFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, res match.Result) error {
	if c.fn == nil {
		return nil
	}
	return c.fn(ctx, res)
}

func (c *Callback) Close() error { return nil }
