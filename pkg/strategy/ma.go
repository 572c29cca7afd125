package strategy

import (
	"fmt"
	"log/slog"

	"github.com/mikesmitty/tickavg/pkg/market"
	"github.com/mikesmitty/tickavg/pkg/swma"
)

// MovingAverage buys one share when the price is above the previous moving
// average and sells one when it is below. No signal is emitted while either
// the current or the previous average is zero, which covers the first tick
// and a run of zero-price ticks.
type MovingAverage struct {
	name   string
	symbol string
	avg    swma.Averager
	prevMA float64
}

func NewMovingAverage(name, symbol string, avg swma.Averager) *MovingAverage {
	return &MovingAverage{
		name:   name,
		symbol: symbol,
		avg:    avg,
	}
}

// NewWindowedMovingAverage uses the O(1) running-sum averager.
func NewWindowedMovingAverage(symbol string, windowSize int, opts ...swma.Option) (*MovingAverage, error) {
	avg, err := swma.NewSlidingWindow(windowSize, opts...)
	if err != nil {
		return nil, err
	}
	return NewMovingAverage("windowed_ma", symbol, avg), nil
}

// NewNaiveMovingAverage uses the full-history averager.
func NewNaiveMovingAverage(symbol string, windowSize int) (*MovingAverage, error) {
	avg, err := swma.NewNaiveWindow(windowSize)
	if err != nil {
		return nil, err
	}
	return NewMovingAverage("naive_ma", symbol, avg), nil
}

func (m *MovingAverage) Name() string   { return m.name }
func (m *MovingAverage) Symbol() string { return m.symbol }

func (m *MovingAverage) OnTick(tick market.Tick) ([]market.Signal, error) {
	if tick.Symbol != m.symbol {
		return nil, nil
	}
	ma, err := m.avg.Add(tick.Price)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}
	slog.Debug("moving average", "symbol", m.symbol, "price", tick.Price, "ma", ma, "samples", m.avg.Len(), "module", "strategy")

	prev := m.prevMA
	m.prevMA = ma
	if ma == 0 || prev == 0 {
		return nil, nil
	}

	signal := market.Signal{
		Time:     tick.Time,
		Symbol:   tick.Symbol,
		Quantity: 1,
		Strategy: m.name,
	}
	switch {
	case tick.Price > prev:
		signal.Side = market.Buy
		signal.Reason = fmt.Sprintf("price %.2f > previous ma %.2f", tick.Price, prev)
	case tick.Price < prev:
		signal.Side = market.Sell
		signal.Reason = fmt.Sprintf("price %.2f < previous ma %.2f", tick.Price, prev)
	default:
		return nil, nil
	}
	return []market.Signal{signal}, nil
}
