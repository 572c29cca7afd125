package strategy

import (
	"fmt"

	"github.com/mikesmitty/tickavg/pkg/market"
	"github.com/mikesmitty/tickavg/pkg/stats"
)

const breakoutLookback = 20

// VolatilityBreakout enters when the latest return exceeds the population
// standard deviation of the previous 20 returns and exits on a move of the
// same size downwards.
type VolatilityBreakout struct {
	symbol    string
	returns   *stats.Stats
	prevPrice float64
	hasPrev   bool
	long      bool
}

func NewVolatilityBreakout(symbol string) *VolatilityBreakout {
	returns, _ := stats.NewStats(breakoutLookback)
	return &VolatilityBreakout{symbol: symbol, returns: returns}
}

func (v *VolatilityBreakout) Name() string   { return "volatility_breakout" }
func (v *VolatilityBreakout) Symbol() string { return v.symbol }

func (v *VolatilityBreakout) OnTick(tick market.Tick) ([]market.Signal, error) {
	if tick.Symbol != v.symbol {
		return nil, nil
	}
	prev, hasPrev := v.prevPrice, v.hasPrev
	v.prevPrice, v.hasPrev = tick.Price, true
	if !hasPrev {
		return nil, nil
	}
	if prev == 0 {
		v.returns.Add(0)
		return nil, nil
	}

	ret := (tick.Price - prev) / prev
	defer v.returns.Add(ret)
	if !v.returns.Full() {
		return nil, nil
	}

	std := v.returns.PopStdDev()
	signal := market.Signal{
		Time:     tick.Time,
		Symbol:   tick.Symbol,
		Quantity: 1,
		Strategy: v.Name(),
	}
	switch {
	case !v.long && ret > std:
		v.long = true
		signal.Side = market.Buy
		signal.Reason = fmt.Sprintf("return %.4f > rolling std %.4f", ret, std)
	case v.long && ret < -std:
		v.long = false
		signal.Side = market.Sell
		signal.Reason = fmt.Sprintf("return %.4f < -rolling std %.4f", ret, std)
	default:
		return nil, nil
	}
	return []market.Signal{signal}, nil
}
