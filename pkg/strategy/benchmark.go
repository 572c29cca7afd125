package strategy

import (
	"fmt"
	"math"

	"github.com/mikesmitty/tickavg/pkg/market"
	"github.com/mikesmitty/tickavg/pkg/swma"
)

// MaxVolumeShare caps a single order at this share of the tick's daily volume.
const MaxVolumeShare = 0.075

// Benchmark buys once on the first priced tick and holds. The order spends
// the whole capital, capped by MaxVolumeShare of the tick volume when the
// tick carries one.
type Benchmark struct {
	symbol  string
	capital float64
	entered bool
}

func NewBenchmark(symbol string, capital float64) (*Benchmark, error) {
	if capital <= 0 {
		return nil, fmt.Errorf("benchmark: invalid capital %.2f: must be positive", capital)
	}
	return &Benchmark{symbol: symbol, capital: capital}, nil
}

func (b *Benchmark) Name() string   { return "benchmark" }
func (b *Benchmark) Symbol() string { return b.symbol }

func (b *Benchmark) OnTick(tick market.Tick) ([]market.Signal, error) {
	if tick.Symbol != b.symbol || b.entered {
		return nil, nil
	}
	if math.IsNaN(tick.Price) || math.IsInf(tick.Price, 0) {
		return nil, fmt.Errorf("benchmark: %w", swma.ErrNonFiniteTick)
	}
	if tick.Price <= 0 {
		return nil, nil
	}
	b.entered = true

	budget := b.capital
	if tick.Volume > 0 {
		budget = min(budget, tick.Volume*MaxVolumeShare)
	}
	qty := int(budget / tick.Price)
	if qty < 1 {
		return nil, nil
	}
	return []market.Signal{{
		Time:     tick.Time,
		Symbol:   tick.Symbol,
		Side:     market.Buy,
		Quantity: qty,
		Strategy: b.Name(),
		Reason:   fmt.Sprintf("buy and hold %d at %.2f", qty, tick.Price),
	}}, nil
}
