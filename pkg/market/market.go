package market

import (
	"fmt"
	"strings"
	"time"
)

type Tick struct {
	Time   time.Time
	Symbol string
	Price  float64
	Volume float64
}

type Side int

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown side: %q", s)
}

type Signal struct {
	Time     time.Time
	Symbol   string
	Side     Side
	Quantity int
	Strategy string
	Reason   string
}

// Average is one moving average output, taken over Samples ticks.
type Average struct {
	Time    time.Time
	Symbol  string
	Value   float64
	Samples int
}
