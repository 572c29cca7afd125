package router

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain[T any](ch <-chan T) []T {
	var out []T
	for v := range ch {
		out = append(out, v)
	}
	return out
}

func TestFanBroadcasts(t *testing.T) {
	input := make(chan int)
	f := NewFan[int]("test", input)
	f.SetDebug(true)
	a := f.Subscribe("a")
	b := f.Subscribe("b")

	var wg sync.WaitGroup
	var gotA, gotB []int
	wg.Add(2)
	go func() { defer wg.Done(); gotA = drain(a) }()
	go func() { defer wg.Done(); gotB = drain(b) }()

	done := make(chan error)
	go func() { done <- f.Run() }()
	for i := 1; i <= 5; i++ {
		input <- i
	}
	close(input)

	require.NoError(t, <-done)
	wg.Wait()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, gotA)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, gotB)
}

func TestFanSubscribeTwicePanics(t *testing.T) {
	f := NewFan[int]("test", make(chan int))
	f.Subscribe("a")
	assert.Panics(t, func() { f.Subscribe("a") })
}

func TestFanUnsubscribe(t *testing.T) {
	f := NewFan[int]("test", make(chan int))
	ch := f.Subscribe("a")
	f.Unsubscribe("a")
	_, ok := <-ch
	assert.False(t, ok)
	assert.Panics(t, func() { f.Unsubscribe("a") })
}

func TestFanSubscribeAfterClose(t *testing.T) {
	input := make(chan int)
	close(input)
	f := NewFan[int]("test", input)
	require.NoError(t, f.Run())

	_, ok := <-f.Subscribe("late")
	assert.False(t, ok)
	assert.Panics(t, func() { f.Subscribe("late") })
}

func TestFanKeepsClientsAfterClose(t *testing.T) {
	input := make(chan int)
	f := NewFan[int]("test", input)
	early := f.Subscribe("early")
	close(input)
	require.NoError(t, f.Run())

	_, ok := <-early
	assert.False(t, ok)
	assert.Panics(t, func() { f.Subscribe("early") })
	assert.NotPanics(t, func() { f.Unsubscribe("early") })
	_, ok = <-f.Subscribe("early")
	assert.False(t, ok)
}
