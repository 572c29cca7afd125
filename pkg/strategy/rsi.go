package strategy

import (
	"fmt"
	"math"

	"github.com/mikesmitty/tickavg/pkg/market"
	"github.com/mikesmitty/tickavg/pkg/swma"
)

const (
	RSIPeriod     = 14
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// RSI sells one share whenever the relative strength index over the last
// period price changes is above the overbought level and buys one whenever it
// is below the oversold level. It holds no position state of its own.
type RSI struct {
	symbol     string
	gains      *swma.SlidingWindow
	losses     *swma.SlidingWindow
	overbought float64
	oversold   float64
	prevPrice  float64
	hasPrev    bool
}

func NewRSI(symbol string, period int, overbought, oversold float64) (*RSI, error) {
	gains, err := swma.NewSlidingWindow(period)
	if err != nil {
		return nil, err
	}
	losses, err := swma.NewSlidingWindow(period)
	if err != nil {
		return nil, err
	}
	if oversold <= 0 || oversold >= overbought || overbought >= 100 {
		return nil, fmt.Errorf("rsi: invalid levels oversold %.2f overbought %.2f", oversold, overbought)
	}
	return &RSI{
		symbol:     symbol,
		gains:      gains,
		losses:     losses,
		overbought: overbought,
		oversold:   oversold,
	}, nil
}

func (r *RSI) Name() string   { return "rsi" }
func (r *RSI) Symbol() string { return r.symbol }

// Value reports the current index and whether enough changes have been seen.
func (r *RSI) Value() (float64, bool) {
	if !r.gains.Full() {
		return 0, false
	}
	avgLoss := r.losses.Average()
	if avgLoss == 0 {
		return 100, true
	}
	rs := r.gains.Average() / avgLoss
	return 100 - 100/(1+rs), true
}

func (r *RSI) OnTick(tick market.Tick) ([]market.Signal, error) {
	if tick.Symbol != r.symbol {
		return nil, nil
	}
	if math.IsNaN(tick.Price) || math.IsInf(tick.Price, 0) {
		return nil, fmt.Errorf("rsi: %w", swma.ErrNonFiniteTick)
	}
	prev, hasPrev := r.prevPrice, r.hasPrev
	r.prevPrice, r.hasPrev = tick.Price, true
	if !hasPrev {
		return nil, nil
	}

	change := tick.Price - prev
	r.gains.Add(math.Max(change, 0))
	r.losses.Add(math.Max(-change, 0))
	rsi, ok := r.Value()
	if !ok {
		return nil, nil
	}

	signal := market.Signal{
		Time:     tick.Time,
		Symbol:   tick.Symbol,
		Quantity: 1,
		Strategy: r.Name(),
	}
	switch {
	case rsi > r.overbought:
		signal.Side = market.Sell
		signal.Reason = fmt.Sprintf("rsi %.2f > %.0f", rsi, r.overbought)
	case rsi < r.oversold:
		signal.Side = market.Buy
		signal.Reason = fmt.Sprintf("rsi %.2f < %.0f", rsi, r.oversold)
	default:
		return nil, nil
	}
	return []market.Signal{signal}, nil
}
