package router

import (
	"log/slog"
	"sync"
)

// Fan copies every value from input to each subscriber. A slow subscriber
// blocks the others.
type Fan[T any] struct {
	debug   bool
	name    string
	mu      sync.Mutex
	closed  bool
	input   <-chan T
	outputs map[string]chan T
}

func NewFan[T any](name string, input <-chan T) *Fan[T] {
	return &Fan[T]{
		name:    name,
		input:   input,
		outputs: make(map[string]chan T),
	}
}

func (f *Fan[T]) SetDebug(debug bool) {
	f.debug = debug
}

// Subscribe panics if client is already subscribed, including after the input
// has closed. A late subscriber gets a closed channel.
func (f *Fan[T]) Subscribe(client string) <-chan T {
	if f.debug {
		slog.Debug("subscribing to fan", "fan", f.name, "client", client)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.outputs[client]; ok {
		panic("client already subscribed")
	}
	c := make(chan T, 1)
	if f.closed {
		close(c)
	}
	f.outputs[client] = c
	return c
}

func (f *Fan[T]) Unsubscribe(client string) {
	if f.debug {
		slog.Debug("unsubscribing from fan", "fan", f.name, "client", client)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.outputs[client]
	if !ok {
		panic("client not subscribed")
	}
	if !f.closed {
		close(ch)
	}
	delete(f.outputs, client)
}

// Run forwards values until input closes, then closes every subscriber.
func (f *Fan[T]) Run() error {
	for v := range f.input {
		if f.debug {
			slog.Debug("fan received value", "fan", f.name, "value", v)
		}
		f.mu.Lock()
		for k, ch := range f.outputs {
			ch <- v
			if f.debug {
				slog.Debug("fan sent value", "subscriber", k, "fan", f.name, "value", v)
			}
		}
		f.mu.Unlock()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for _, ch := range f.outputs {
		close(ch)
	}
	slog.Debug("fan input closed", "fan", f.name)
	return nil
}
