package strategy

import (
	"fmt"
	"math"

	"github.com/mikesmitty/tickavg/pkg/market"
	"github.com/mikesmitty/tickavg/pkg/swma"
)

const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// ema is an exponential moving average seeded with the simple average of its
// first period values.
type ema struct {
	alpha float64
	seed  *swma.SlidingWindow
	value float64
	ready bool
}

func newEMA(period int) (*ema, error) {
	seed, err := swma.NewSlidingWindow(period)
	if err != nil {
		return nil, err
	}
	return &ema{alpha: 2 / float64(period+1), seed: seed}, nil
}

// add expects a finite value.
func (e *ema) add(v float64) (float64, bool) {
	if e.ready {
		e.value = v*e.alpha + e.value*(1-e.alpha)
		return e.value, true
	}
	avg, _ := e.seed.Add(v)
	if e.seed.Full() {
		e.value, e.ready = avg, true
	}
	return e.value, e.ready
}

// MACD enters when the MACD line crosses above its signal line while flat and
// exits when it crosses below while long.
type MACD struct {
	symbol     string
	fast       *ema
	slow       *ema
	signal     *ema
	prevMACD   float64
	prevSignal float64
	primed     bool
	long       bool
}

func NewMACD(symbol string, fastPeriod, slowPeriod, signalPeriod int) (*MACD, error) {
	fast, err := newEMA(fastPeriod)
	if err != nil {
		return nil, err
	}
	slow, err := newEMA(slowPeriod)
	if err != nil {
		return nil, err
	}
	signal, err := newEMA(signalPeriod)
	if err != nil {
		return nil, err
	}
	if fastPeriod >= slowPeriod {
		return nil, fmt.Errorf("macd: fast period %d must be shorter than slow period %d", fastPeriod, slowPeriod)
	}
	return &MACD{symbol: symbol, fast: fast, slow: slow, signal: signal}, nil
}

func (m *MACD) Name() string   { return "macd" }
func (m *MACD) Symbol() string { return m.symbol }

func (m *MACD) OnTick(tick market.Tick) ([]market.Signal, error) {
	if tick.Symbol != m.symbol {
		return nil, nil
	}
	if math.IsNaN(tick.Price) || math.IsInf(tick.Price, 0) {
		return nil, fmt.Errorf("macd: %w", swma.ErrNonFiniteTick)
	}
	fast, fastOK := m.fast.add(tick.Price)
	slow, slowOK := m.slow.add(tick.Price)
	if !fastOK || !slowOK {
		return nil, nil
	}

	macd := fast - slow
	signalLine, signalOK := m.signal.add(macd)
	prevMACD, prevSignal, primed := m.prevMACD, m.prevSignal, m.primed
	m.prevMACD, m.prevSignal, m.primed = macd, signalLine, signalOK
	if !primed {
		return nil, nil
	}

	signal := market.Signal{
		Time:     tick.Time,
		Symbol:   tick.Symbol,
		Quantity: 1,
		Strategy: m.Name(),
	}
	switch {
	case !m.long && prevMACD <= prevSignal && macd > signalLine:
		m.long = true
		signal.Side = market.Buy
		signal.Reason = fmt.Sprintf("macd crossover: %.6f > %.6f", macd, signalLine)
	case m.long && prevMACD >= prevSignal && macd < signalLine:
		m.long = false
		signal.Side = market.Sell
		signal.Reason = fmt.Sprintf("macd crossunder: %.6f < %.6f", macd, signalLine)
	default:
		return nil, nil
	}
	return []market.Signal{signal}, nil
}
