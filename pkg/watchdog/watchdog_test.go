package watchdog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mikesmitty/tickavg/pkg/router"
)

func waitFor(t *testing.T, fn func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for return")
		return nil
	}
}

func TestWatchdogFiresOnSilence(t *testing.T) {
	errStale := errors.New("stale")
	input := make(chan int)
	run := NewWatchdog(context.Background(), 10*time.Millisecond, func() error { return errStale }, input)
	assert.ErrorIs(t, run(), errStale)
}

func TestWatchdogQuietWhileFed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	input := make(chan int)
	stale := make(chan struct{}, 1)
	run := NewWatchdog(ctx, 50*time.Millisecond, func() error { stale <- struct{}{}; return nil }, input)

	done := make(chan error)
	go func() { done <- run() }()
	deadline := time.After(200 * time.Millisecond)
feed:
	for {
		select {
		case <-deadline:
			break feed
		case input <- 1:
			time.Sleep(5 * time.Millisecond)
		}
	}
	cancel()
	close(input)
	require.NoError(t, <-done)
	assert.Empty(t, stale)
}

func TestWatchdogStopsOnClosedInput(t *testing.T) {
	input := make(chan int)
	close(input)
	run := NewWatchdog(context.Background(), time.Hour, func() error { return nil }, input)
	assert.NoError(t, run())
}

func TestWatchdogDrainsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan int, 64)
	fan := router.NewFan[int]("ticks", source)
	averages := fan.Subscribe("averages")
	run := NewWatchdog(ctx, time.Hour, func() error { return nil }, fan.Subscribe("watchdog"))

	var g errgroup.Group
	g.Go(fan.Run)
	g.Go(run)
	g.Go(func() error {
		for range averages {
		}
		return nil
	})

	// Ticks still queued in the source when shutdown starts.
	cancel()
	for i := 0; i < 5; i++ {
		source <- i
	}
	close(source)

	assert.NoError(t, waitFor(t, g.Wait))
}

func TestWatchdogDrainsAfterStaleError(t *testing.T) {
	errStale := errors.New("stale")
	source := make(chan int)
	fan := router.NewFan[int]("ticks", source)
	run := NewWatchdog(context.Background(), 10*time.Millisecond, func() error { return errStale }, fan.Subscribe("watchdog"))
	require.ErrorIs(t, run(), errStale)

	done := make(chan error, 1)
	go func() { done <- fan.Run() }()
	for i := 0; i < 5; i++ {
		source <- i
	}
	close(source)
	assert.NoError(t, waitFor(t, func() error { return <-done }))
}
