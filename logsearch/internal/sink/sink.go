// Package sink delivers finished search results to their consumers.
package sink

import (
	"context"

	"github.com/hazyhaar/logsearch/logsearch/match"
)

// Sink receives one Result per completed search.
type Sink interface {
	Send(ctx context.Context, res match.Result) error
	Close() error
}

// envelope is the wire form shared by the serialising sinks.
type envelope struct {
	Type   string       `json:"type"`
	Status string       `json:"status"`
	Data   match.Result `json:"data"`
}

func wrap(res match.Result) envelope {
	return envelope{Type: "search_result", Status: res.Status(), Data: res}
}
