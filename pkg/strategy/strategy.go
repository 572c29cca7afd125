package strategy

import "github.com/mikesmitty/tickavg/pkg/market"

// Strategy turns a tick stream for one symbol into trading signals. Ticks for
// other symbols produce no signals.
type Strategy interface {
	Name() string
	Symbol() string
	OnTick(tick market.Tick) ([]market.Signal, error)
}
