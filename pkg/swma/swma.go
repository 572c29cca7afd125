package swma

import "math"

// Averager produces the mean of the most recent ticks after each Add.
type Averager interface {
	Add(value float64) (float64, error)
	Average() float64
	Len() int
	WindowSize() int
}

type Option func(*SlidingWindow) error

// WithResyncEvery recomputes the running sum from the window contents every n
// ingests, bounding floating point drift on long streams.
func WithResyncEvery(n int) Option {
	return func(s *SlidingWindow) error {
		if n <= 0 {
			return &ConfigurationError{Field: "resync interval", Value: n}
		}
		s.resyncEvery = n
		return nil
	}
}

// SlidingWindow keeps the moving average of the last windowSize values in
// O(1) time per value and O(windowSize) space. Values live in a ring buffer:
// once full, head is the oldest slot and is overwritten on the next Add.
type SlidingWindow struct {
	sum        float64
	window     []float64
	head       int
	count      int
	windowSize int

	resyncEvery int
	sinceResync int
}

func NewSlidingWindow(windowSize int, opts ...Option) (*SlidingWindow, error) {
	if windowSize <= 0 {
		return nil, &ConfigurationError{Field: "window size", Value: windowSize}
	}
	s := &SlidingWindow{
		window:     make([]float64, windowSize),
		windowSize: windowSize,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add ingests value and returns the average of the values now in the window.
func (s *SlidingWindow) Add(value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return s.Average(), ErrNonFiniteTick
	}

	s.sum += value
	if s.count < s.windowSize {
		s.window[(s.head+s.count)%s.windowSize] = value
		s.count++
	} else {
		s.sum -= s.window[s.head]
		s.window[s.head] = value
		s.head = (s.head + 1) % s.windowSize
	}

	if s.resyncEvery > 0 {
		s.sinceResync++
		if s.sinceResync >= s.resyncEvery {
			s.resync()
		}
	}
	return s.sum / float64(s.count), nil
}

func (s *SlidingWindow) resync() {
	s.sinceResync = 0
	sum := 0.0
	for i := 0; i < s.count; i++ {
		sum += s.window[(s.head+i)%s.windowSize]
	}
	s.sum = sum
}

func (s *SlidingWindow) Average() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func (s *SlidingWindow) Reset() {
	s.sum = 0
	s.head = 0
	s.count = 0
	s.sinceResync = 0
	clear(s.window)
}

func (s *SlidingWindow) Sum() float64 {
	return s.sum
}

// Window returns a copy of the current values, oldest first.
func (s *SlidingWindow) Window() []float64 {
	out := make([]float64, s.count)
	for i := range out {
		out[i] = s.window[(s.head+i)%s.windowSize]
	}
	return out
}

func (s *SlidingWindow) Len() int {
	return s.count
}

func (s *SlidingWindow) Full() bool {
	return s.count == s.windowSize
}

func (s *SlidingWindow) WindowSize() int {
	return s.windowSize
}
