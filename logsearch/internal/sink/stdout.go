package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/logsearch/logsearch/match"
)

// Stdout writes one JSON line per result to an io.Writer.
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) Send(_ context.Context, res match.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(wrap(res))
}

func (s *Stdout) Close() error { return nil }
