package swma

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// NaiveWindow keeps every value it has seen and recomputes the mean of the
// last windowSize of them on each Add: O(windowSize) time per value and O(n)
// space over a run. It exists as the baseline SlidingWindow is measured against.
type NaiveWindow struct {
	history    []float64
	windowSize int
}

func NewNaiveWindow(windowSize int) (*NaiveWindow, error) {
	if windowSize <= 0 {
		return nil, &ConfigurationError{Field: "window size", Value: windowSize}
	}
	return &NaiveWindow{windowSize: windowSize}, nil
}

func (n *NaiveWindow) Add(value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return n.Average(), ErrNonFiniteTick
	}
	n.history = append(n.history, value)
	return n.Average(), nil
}

func (n *NaiveWindow) Average() float64 {
	if len(n.history) == 0 {
		return 0
	}
	return stat.Mean(n.history[n.start():], nil)
}

func (n *NaiveWindow) start() int {
	return max(0, len(n.history)-n.windowSize)
}

func (n *NaiveWindow) Len() int {
	return len(n.history) - n.start()
}

func (n *NaiveWindow) WindowSize() int {
	return n.windowSize
}

// Retained is the number of values held in memory, which grows without bound.
func (n *NaiveWindow) Retained() int {
	return len(n.history)
}
