package logsearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/logsearch/logsearch/internal/sink"
	"github.com/hazyhaar/logsearch/logsearch/match"
)

// Sink receives every completed search result.
type Sink = sink.Sink

// NewStdoutSink creates a JSON-lines sink. A nil w writes to stdout.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewCallbackSink creates an in-process sink.
func NewCallbackSink(fn func(ctx context.Context, res match.Result) error) Sink {
	return sink.NewCallback(fn)
}

// SinksFromConfig builds the sinks a configuration lists. An empty list
// yields a single stdout sink.
func SinksFromConfig(cfg *Config, logger *slog.Logger) ([]Sink, error) {
	var out []Sink
	for i, sc := range cfg.Sinks {
		switch sc.Type {
		case "", "stdout":
			out = append(out, NewStdoutSink(nil))
		case "webhook":
			out = append(out, NewWebhookSink(sc.URL, logger))
		default:
			return nil, fmt.Errorf("logsearch: sinks[%d]: unknown type %q", i, sc.Type)
		}
	}
	if len(out) == 0 {
		out = append(out, NewStdoutSink(nil))
	}
	return out, nil
}
