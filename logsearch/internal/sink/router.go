package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/logsearch/logsearch/match"
)

// Router fans a result out to every sink. A failing sink is logged and
// does not stop delivery to the rest; the first error is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Len returns the number of sinks.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) Send(ctx context.Context, res match.Result) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Send(ctx, res); err != nil {
			r.logger.Warn("sink: send result failed", "id", res.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
