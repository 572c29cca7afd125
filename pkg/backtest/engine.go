package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/mikesmitty/tickavg/pkg/market"
	"github.com/mikesmitty/tickavg/pkg/strategy"
)

type OrderStatus int

const (
	Filled OrderStatus = iota + 1
	Failed
)

func (s OrderStatus) String() string {
	switch s {
	case Filled:
		return "FILLED"
	case Failed:
		return "FAILED"
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

// Fill is the outcome of executing one signal at the tick price.
type Fill struct {
	Signal market.Signal
	Price  float64
	Status OrderStatus
	Err    error
}

// Position is an account snapshot taken after a tick changed it.
type Position struct {
	Time     time.Time
	Quantity int
	AvgPrice float64
	Cash     float64
}

func (p Position) sameHolding(o Position) bool {
	return p.Quantity == o.Quantity && p.AvgPrice == o.AvgPrice && p.Cash == o.Cash
}

type Report struct {
	Ticks     int
	Signals   int
	Fills     int
	Failures  int
	Accounts  map[string]Account
	Positions map[string][]Position
}

// Engine runs strategies over a tick stream and settles their signals against
// per-strategy accounts. It is not safe for concurrent use.
type Engine struct {
	strategies  []strategy.Strategy
	accounts    map[string]*Account
	report      Report
	failureRate float64
	rng         *rand.Rand
	history     bool
	positions   map[string][]Position
}

type Option func(*Engine) error

// WithFailureRate makes each order fail with probability rate before it
// reaches the account. seed drives the draws so runs can be repeated.
func WithFailureRate(rate float64, seed int64) Option {
	return func(e *Engine) error {
		if math.IsNaN(rate) || rate < 0 || rate > 1 {
			return fmt.Errorf("backtest: invalid failure rate %v: must be within [0, 1]", rate)
		}
		e.failureRate = rate
		e.rng = rand.New(rand.NewSource(seed))
		return nil
	}
}

// WithPositionHistory records a Position for a strategy on its first tick and
// on every tick that changes its account.
func WithPositionHistory() Option {
	return func(e *Engine) error {
		e.history = true
		return nil
	}
}

func NewEngine(initialCapital float64, strategies []strategy.Strategy, opts ...Option) (*Engine, error) {
	if len(strategies) == 0 {
		return nil, errors.New("backtest: no strategies")
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("backtest: invalid initial capital %.2f: must be positive", initialCapital)
	}
	e := &Engine{
		strategies: strategies,
		accounts:   make(map[string]*Account, len(strategies)),
		positions:  make(map[string][]Position),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	for _, s := range strategies {
		key := accountKey(s)
		if _, ok := e.accounts[key]; ok {
			return nil, fmt.Errorf("backtest: duplicate strategy %s", key)
		}
		e.accounts[key] = &Account{Cash: initialCapital}
		slog.Info("allocated capital", "strategy", key, "capital", initialCapital, "module", "backtest")
	}
	return e, nil
}

func accountKey(s strategy.Strategy) string {
	return s.Name() + "_" + s.Symbol()
}

// OnTick feeds tick to every strategy trading its symbol and executes the
// resulting signals. Failed orders are reported in the returned fills.
func (e *Engine) OnTick(tick market.Tick) []Fill {
	e.report.Ticks++
	var fills []Fill
	for _, s := range e.strategies {
		if s.Symbol() != tick.Symbol {
			continue
		}
		signals, err := s.OnTick(tick)
		if err != nil {
			slog.Warn("strategy failed on tick", "strategy", s.Name(), "symbol", tick.Symbol, "error", err, "module", "backtest")
			continue
		}
		key := accountKey(s)
		account := e.accounts[key]
		for _, signal := range signals {
			e.report.Signals++
			fill := Fill{Signal: signal, Price: tick.Price, Status: Filled}
			if err := e.execute(account, signal, tick.Price); err != nil {
				fill.Status = Failed
				fill.Err = err
				e.report.Failures++
				slog.Error("order failed", "strategy", s.Name(), "symbol", signal.Symbol, "side", signal.Side, "error", err, "module", "backtest")
			} else {
				e.report.Fills++
				slog.Debug("executed", "strategy", s.Name(), "symbol", signal.Symbol, "side", signal.Side, "quantity", signal.Quantity, "price", tick.Price, "cash", account.Cash, "module", "backtest")
			}
			fills = append(fills, fill)
		}
		if e.history {
			e.snapshot(key, tick.Time, account)
		}
	}
	return fills
}

func (e *Engine) execute(account *Account, signal market.Signal, price float64) error {
	if e.rng != nil && e.rng.Float64() < e.failureRate {
		return fmt.Errorf("%w for %s", ErrExecutionFailed, signal.Symbol)
	}
	return account.execute(signal.Side, signal.Quantity, price)
}

func (e *Engine) snapshot(key string, t time.Time, account *Account) {
	p := Position{Time: t, Quantity: account.Quantity, AvgPrice: account.AvgPrice, Cash: account.Cash}
	history := e.positions[key]
	if len(history) > 0 && history[len(history)-1].sameHolding(p) {
		return
	}
	e.positions[key] = append(history, p)
}

// Run consumes ticks until the channel is closed or ctx is done.
func (e *Engine) Run(ctx context.Context, ticks <-chan market.Tick) (*Report, error) {
	for {
		select {
		case <-ctx.Done():
			return e.Report(), ctx.Err()
		case tick, ok := <-ticks:
			if !ok {
				report := e.Report()
				slog.Info("backtest completed", "ticks", report.Ticks, "signals", report.Signals, "fills", report.Fills, "failures", report.Failures, "module", "backtest")
				return report, nil
			}
			e.OnTick(tick)
		}
	}
}

// Report returns a snapshot of the counters, accounts and position history.
func (e *Engine) Report() *Report {
	r := e.report
	r.Accounts = make(map[string]Account, len(e.accounts))
	for k, a := range e.accounts {
		r.Accounts[k] = *a
	}
	r.Positions = make(map[string][]Position, len(e.positions))
	for k, p := range e.positions {
		r.Positions[k] = slices.Clone(p)
	}
	return &r
}
