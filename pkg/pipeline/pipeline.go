package pipeline

import (
	"log/slog"

	"github.com/mikesmitty/tickavg/pkg/backtest"
	"github.com/mikesmitty/tickavg/pkg/market"
	"github.com/mikesmitty/tickavg/pkg/swma"
)

// Recorder observes the values flowing through the stages.
type Recorder interface {
	Tick(tick market.Tick)
	Rejected(tick market.Tick, err error)
	Average(avg market.Average)
	Fill(fill backtest.Fill)
}

type nopRecorder struct{}

func (nopRecorder) Tick(market.Tick)            {}
func (nopRecorder) Rejected(market.Tick, error) {}
func (nopRecorder) Average(market.Average)      {}
func (nopRecorder) Fill(backtest.Fill)          {}

func orNop(rec Recorder) Recorder {
	if rec == nil {
		return nopRecorder{}
	}
	return rec
}

// Averages keeps one sliding window per symbol and emits the moving average
// after every accepted tick. Non-finite ticks are dropped.
func Averages(ticks <-chan market.Tick, rec Recorder, windowSize int, opts ...swma.Option) (<-chan market.Average, func() error, error) {
	// Surface configuration errors before the stage starts.
	if _, err := swma.NewSlidingWindow(windowSize, opts...); err != nil {
		return nil, nil, err
	}
	rec = orNop(rec)
	c := make(chan market.Average, 1)
	return c, func() error {
		defer close(c)
		windows := make(map[string]*swma.SlidingWindow)
		for tick := range ticks {
			rec.Tick(tick)
			w, ok := windows[tick.Symbol]
			if !ok {
				var err error
				if w, err = swma.NewSlidingWindow(windowSize, opts...); err != nil {
					return err
				}
				windows[tick.Symbol] = w
				slog.Debug("new symbol window", "symbol", tick.Symbol, "windowSize", windowSize, "module", "pipeline")
			}
			value, err := w.Add(tick.Price)
			if err != nil {
				slog.Warn("dropping tick", "symbol", tick.Symbol, "price", tick.Price, "error", err, "module", "pipeline")
				rec.Rejected(tick, err)
				continue
			}
			avg := market.Average{Time: tick.Time, Symbol: tick.Symbol, Value: value, Samples: w.Len()}
			rec.Average(avg)
			c <- avg
		}
		return nil
	}, nil
}

// Fills runs each tick through the engine and emits every settled or failed
// order.
func Fills(ticks <-chan market.Tick, rec Recorder, engine *backtest.Engine) (<-chan backtest.Fill, func() error) {
	rec = orNop(rec)
	c := make(chan backtest.Fill, 1)
	return c, func() error {
		defer close(c)
		for tick := range ticks {
			for _, fill := range engine.OnTick(tick) {
				rec.Fill(fill)
				c <- fill
			}
		}
		report := engine.Report()
		slog.Info("engine stopped", "ticks", report.Ticks, "signals", report.Signals, "fills", report.Fills, "failures", report.Failures, "module", "pipeline")
		return nil
	}
}
