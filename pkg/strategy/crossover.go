package strategy

import (
	"fmt"

	"github.com/mikesmitty/tickavg/pkg/market"
	"github.com/mikesmitty/tickavg/pkg/swma"
)

// Crossover signals when the short SMA crosses the long SMA. Each SMA is only
// defined once its window is full.
type Crossover struct {
	symbol    string
	short     *swma.SlidingWindow
	long      *swma.SlidingWindow
	prevShort float64
	prevLong  float64
	primed    bool
}

func NewCrossover(symbol string, shortWindow, longWindow int) (*Crossover, error) {
	short, err := swma.NewSlidingWindow(shortWindow)
	if err != nil {
		return nil, err
	}
	long, err := swma.NewSlidingWindow(longWindow)
	if err != nil {
		return nil, err
	}
	if shortWindow >= longWindow {
		return nil, fmt.Errorf("crossover: short window %d must be shorter than long window %d", shortWindow, longWindow)
	}
	return &Crossover{symbol: symbol, short: short, long: long}, nil
}

func (c *Crossover) Name() string   { return "sma_crossover" }
func (c *Crossover) Symbol() string { return c.symbol }

func (c *Crossover) OnTick(tick market.Tick) ([]market.Signal, error) {
	if tick.Symbol != c.symbol {
		return nil, nil
	}
	shortMA, err := c.short.Add(tick.Price)
	if err != nil {
		return nil, fmt.Errorf("crossover: %w", err)
	}
	longMA, err := c.long.Add(tick.Price)
	if err != nil {
		return nil, fmt.Errorf("crossover: %w", err)
	}
	if !c.long.Full() {
		return nil, nil
	}

	prevShort, prevLong, primed := c.prevShort, c.prevLong, c.primed
	c.prevShort, c.prevLong, c.primed = shortMA, longMA, true
	if !primed {
		return nil, nil
	}

	signal := market.Signal{
		Time:     tick.Time,
		Symbol:   tick.Symbol,
		Quantity: 1,
		Strategy: c.Name(),
	}
	switch {
	case prevShort <= prevLong && shortMA > longMA:
		signal.Side = market.Buy
		signal.Reason = fmt.Sprintf("sma crossover: %.2f > %.2f", shortMA, longMA)
	case prevShort >= prevLong && shortMA < longMA:
		signal.Side = market.Sell
		signal.Reason = fmt.Sprintf("sma crossover: %.2f < %.2f", shortMA, longMA)
	default:
		return nil, nil
	}
	return []market.Signal{signal}, nil
}
