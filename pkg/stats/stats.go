package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Stats holds the most recent size values of a series. Values are shifted
// left on every Add; the newest value is always last.
type Stats struct {
	count  int
	size   int
	values []float64
}

func NewStats(size int) (*Stats, error) {
	if size <= 0 {
		return nil, fmt.Errorf("stats: invalid size %d: must be positive", size)
	}
	return &Stats{
		size:   size,
		values: make([]float64, size),
	}, nil
}

func (p *Stats) getValues() []float64 {
	return p.values[p.size-p.count:]
}

func (p *Stats) Add(value float64) {
	p.values = append(p.values[1:], value)
	p.count = min(p.count+1, p.size)
}

func (p *Stats) Len() int {
	return p.count
}

func (p *Stats) Full() bool {
	return p.count == p.size
}

// Values returns a copy of the held values, oldest first.
func (p *Stats) Values() []float64 {
	return append([]float64(nil), p.getValues()...)
}

func (p *Stats) Mean() float64 {
	if p.count == 0 {
		return 0
	}
	return stat.Mean(p.getValues(), nil)
}

// PopStdDev is the population standard deviation of the held values.
func (p *Stats) PopStdDev() float64 {
	if p.count == 0 {
		return 0
	}
	return stat.PopStdDev(p.getValues(), nil)
}
