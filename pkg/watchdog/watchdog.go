package watchdog

import (
	"context"
	"log/slog"
	"time"
)

// NewWatchdog calls onStale when a whole interval passes without a value on
// input. It keeps watching afterwards and returns once input closes or onStale
// fails. After ctx is done it stops checking but keeps reading input until it
// closes, so a fan feeding it never blocks on a gone reader.
func NewWatchdog[T any](ctx context.Context, interval time.Duration, onStale func() error, input <-chan T) func() error {
	return func() error {
		t := time.NewTicker(interval)
		defer t.Stop()
		done := ctx.Done()
		check := t.C
		awake := false
		slog.Debug("watchdog started", "timeout", interval)
		for {
			select {
			case <-done:
				slog.Debug("watchdog stopped, draining input")
				done, check = nil, nil
			case _, ok := <-input:
				if !ok {
					return nil
				}
				awake = true
			case <-check:
				if !awake {
					slog.Error("watchdog timeout, feed is stale", "timeout", interval)
					if err := onStale(); err != nil {
						go drain(input)
						return err
					}
				}
				awake = false
			}
		}
	}
}

func drain[T any](input <-chan T) {
	for range input {
	}
}
