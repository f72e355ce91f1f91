// Package navigate moves the host application's pager by driving its custom
// dropdown the way a user would: open it, wait for the panel, pick the
// option for the wanted range, then wait for the table to come back.
//
// Every wait is bounded. Nothing here owns the host's rendering, so every
// failure is reported as a plain false and the caller stops cleanly.
package navigate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/logsearch/logsearch/internal/pagination"
)

// ErrStaleOption is returned by Widget.Choose when the option at the given
// index no longer carries the expected label.
var ErrStaleOption = errors.New("navigate: option changed before selection")

// Widget is the host's dropdown pager. Implementations re-resolve their
// elements on every call.
type Widget interface {
	// Open sends the focus and pointer sequence that opens the dropdown.
	Open(ctx context.Context) error
	// PanelVisible reports whether the option panel is rendered and visible.
	PanelVisible(ctx context.Context) (bool, error)
	// Options lists the option labels in panel order.
	Options(ctx context.Context) ([]string, error)
	// Choose sends hover, press, release and click to the option at index.
	Choose(ctx context.Context, index int, label string) error
	// ContentReady reports whether the result table is present.
	ContentReady(ctx context.Context) (bool, error)
	// Current reads the range the pager reports as displayed.
	Current(ctx context.Context) (r pagination.Range, found bool, err error)
}

// Config tunes the interaction protocol.
type Config struct {
	LabelFormat     string        // default pagination.DefaultLabelFormat
	PollInterval    time.Duration // panel visibility poll; default 200ms
	OpenAttempts    int           // default 10
	SettleDelay     time.Duration // pause after selection; default 1.5s
	ContentInterval time.Duration // content poll; default 500ms
	ContentAttempts int           // default 20
	Retries         int           // extra full protocol runs; default 1, -1 for none
	Logger          *slog.Logger
}

func (c *Config) defaults() {
	if c.LabelFormat == "" {
		c.LabelFormat = pagination.DefaultLabelFormat
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 200 * time.Millisecond
	}
	if c.OpenAttempts <= 0 {
		c.OpenAttempts = 10
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	} else if c.SettleDelay == 0 {
		c.SettleDelay = 1500 * time.Millisecond
	}
	if c.ContentInterval <= 0 {
		c.ContentInterval = 500 * time.Millisecond
	}
	if c.ContentAttempts <= 0 {
		c.ContentAttempts = 20
	}
	if c.Retries < 0 {
		c.Retries = 0
	} else if c.Retries == 0 {
		c.Retries = 1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Driver advances the pager through a Widget.
type Driver struct {
	w   Widget
	cfg Config
}

// New creates a Driver.
func New(w Widget, cfg Config) *Driver {
	cfg.defaults()
	return &Driver{w: w, cfg: cfg}
}

// Advance moves to the range after st. It returns false when st is the last
// range or navigation failed.
func (d *Driver) Advance(ctx context.Context, st pagination.State) bool {
	next, ok := st.Next()
	if !ok {
		d.cfg.Logger.Debug("navigate: no further range", "start", st.Start, "total", st.Total)
		return false
	}
	return d.Goto(ctx, next)
}

// Goto selects target in the dropdown and waits for the new content.
func (d *Driver) Goto(ctx context.Context, target pagination.Range) bool {
	label := target.Label(d.cfg.LabelFormat)
	log := d.cfg.Logger.With("target", label)

	for attempt := 0; attempt <= d.cfg.Retries; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		if attempt > 0 {
			log.Info("navigate: retrying", "attempt", attempt+1)
		}
		if err := d.run(ctx, target, label); err != nil {
			log.Warn("navigate: attempt failed", "attempt", attempt+1, "error", err)
			continue
		}
		log.Info("navigate: page loaded")
		return true
	}
	return false
}

// run performs one pass of the protocol.
func (d *Driver) run(ctx context.Context, target pagination.Range, label string) error {
	if err := d.w.Open(ctx); err != nil {
		return &StepError{Step: StepOpen, Err: err}
	}

	visible, err := poll(ctx, d.cfg.OpenAttempts, d.cfg.PollInterval, d.w.PanelVisible)
	if err != nil {
		return &StepError{Step: StepPanel, Err: err}
	}
	if !visible {
		return &StepError{Step: StepPanel, Err: errNotVisible}
	}

	labels, err := d.w.Options(ctx)
	if err != nil {
		return &StepError{Step: StepOptions, Err: err}
	}
	idx := FindOption(labels, label)
	if idx < 0 {
		return &StepError{Step: StepOptions, Err: errNoOption}
	}

	if err := d.w.Choose(ctx, idx, labels[idx]); err != nil {
		return &StepError{Step: StepChoose, Err: err}
	}

	if err := sleep(ctx, d.cfg.SettleDelay); err != nil {
		return &StepError{Step: StepContent, Err: err}
	}

	ready, err := poll(ctx, d.cfg.ContentAttempts, d.cfg.ContentInterval, func(ctx context.Context) (bool, error) {
		return d.landed(ctx, target)
	})
	if err != nil {
		return &StepError{Step: StepContent, Err: err}
	}
	if !ready {
		return &StepError{Step: StepContent, Err: errNoContent}
	}
	return nil
}

// landed reports whether the table is back and the pager shows target.
// The old table stays in place while the host loads the next one, so the
// table alone does not prove the page changed.
func (d *Driver) landed(ctx context.Context, target pagination.Range) (bool, error) {
	ok, err := d.w.ContentReady(ctx)
	if err != nil || !ok {
		return false, err
	}
	cur, found, err := d.w.Current(ctx)
	if err != nil {
		return false, err
	}
	return found && cur == target, nil
}

// FindOption returns the index of the option whose normalised text equals
// label, or -1.
func FindOption(labels []string, label string) int {
	want := Normalize(label)
	for i, l := range labels {
		if Normalize(l) == want {
			return i
		}
	}
	return -1
}

// Normalize trims, collapses inner whitespace and lower-cases s.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Stationary is a pager for documents that cannot navigate, such as a
// saved export. It never moves.
type Stationary struct{}

func (Stationary) Advance(context.Context, pagination.State) bool { return false }
func (Stationary) Goto(context.Context, pagination.Range) bool    { return false }
