package navigate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Step names a stage of the dropdown protocol.
type Step string

const (
	StepOpen    Step = "open"
	StepPanel   Step = "panel"
	StepOptions Step = "options"
	StepChoose  Step = "choose"
	StepContent Step = "content"
)

var (
	errNotVisible = errors.New("dropdown never became visible")
	errNoOption   = errors.New("option not found")
	errNoContent  = errors.New("content did not reappear for the target range")
)

// StepError reports which stage of the protocol failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("navigate: %s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// poll calls check up to attempts times, interval apart, until it reports
// true. Check errors are treated as "not yet" until the last attempt.
func poll(ctx context.Context, attempts int, interval time.Duration, check func(context.Context) (bool, error)) (bool, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleep(ctx, interval); err != nil {
				return false, err
			}
		}
		ok, err := check(ctx)
		if err == nil && ok {
			return true, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return false, lastErr
	}
	return false, nil
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
