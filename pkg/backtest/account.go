package backtest

import (
	"errors"
	"fmt"

	"github.com/mikesmitty/tickavg/pkg/market"
)

var (
	ErrInsufficientCapital = errors.New("insufficient capital")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrExecutionFailed     = errors.New("simulated execution failure")
)

// Account is the cash and single-symbol position owned by one strategy.
type Account struct {
	Cash     float64
	Quantity int
	AvgPrice float64
}

func (a *Account) execute(side market.Side, quantity int, price float64) error {
	value := float64(quantity) * price
	switch side {
	case market.Buy:
		if value > a.Cash {
			return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCapital, value, a.Cash)
		}
		a.Cash -= value
		cost := float64(a.Quantity)*a.AvgPrice + value
		a.Quantity += quantity
		a.AvgPrice = cost / float64(a.Quantity)
	case market.Sell:
		if quantity > a.Quantity {
			return fmt.Errorf("%w: selling %d, have %d", ErrInsufficientShares, quantity, a.Quantity)
		}
		a.Cash += value
		a.Quantity -= quantity
		if a.Quantity == 0 {
			a.AvgPrice = 0
		}
	default:
		return fmt.Errorf("unknown side %v", side)
	}
	return nil
}

// Equity values the account at the given price.
func (a Account) Equity(price float64) float64 {
	return a.Cash + float64(a.Quantity)*price
}
