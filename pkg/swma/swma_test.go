package swma

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bruteForce(ticks []float64, k int) []float64 {
	out := make([]float64, len(ticks))
	for i := range ticks {
		start := max(0, i-k+1)
		sum := 0.0
		for _, v := range ticks[start : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-start)
	}
	return out
}

func ingestAll(t *testing.T, a Averager, ticks []float64) []float64 {
	t.Helper()
	out := make([]float64, 0, len(ticks))
	for _, tick := range ticks {
		avg, err := a.Add(tick)
		require.NoError(t, err)
		out = append(out, avg)
	}
	return out
}

func randomTicks(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	ticks := make([]float64, n)
	price := 100.0
	for i := range ticks {
		price += r.NormFloat64()
		ticks[i] = price
	}
	return ticks
}

func TestSlidingWindowScenarios(t *testing.T) {
	tests := []struct {
		name  string
		k     int
		ticks []float64
		want  []float64
	}{
		{"warm-up then slide", 3, []float64{10, 20, 30, 40}, []float64{10, 15, 20, 30}},
		{"constant", 2, []float64{5, 5, 5}, []float64{5, 5, 5}},
		{"negative and zero", 2, []float64{-4, 0, 4}, []float64{-4, -2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSlidingWindow(tt.k)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, ingestAll(t, s, tt.ticks), 1e-12)
		})
	}
}

func TestNewSlidingWindowRejectsNonPositiveSize(t *testing.T) {
	for _, k := range []int{0, -1} {
		s, err := NewSlidingWindow(k)
		assert.Nil(t, s)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, k, cfgErr.Value)
		assert.Equal(t, "window size", cfgErr.Field)
	}
}

func TestWithResyncEveryRejectsNonPositive(t *testing.T) {
	_, err := NewSlidingWindow(3, WithResyncEvery(0))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "resync interval", cfgErr.Field)
}

func TestSlidingWindowMatchesBruteForce(t *testing.T) {
	ticks := randomTicks(1, 2000)
	for _, k := range []int{1, 2, 7, 40, 500, 5000} {
		s, err := NewSlidingWindow(k)
		require.NoError(t, err)
		assert.InDeltaSlice(t, bruteForce(ticks, k), ingestAll(t, s, ticks), 1e-9, "k=%d", k)
	}
}

func TestSlidingWindowWarmUp(t *testing.T) {
	ticks := []float64{3, 9, 1, 7, 5}
	s, err := NewSlidingWindow(10)
	require.NoError(t, err)
	sum := 0.0
	for i, tick := range ticks {
		sum += tick
		avg, err := s.Add(tick)
		require.NoError(t, err)
		assert.InDelta(t, sum/float64(i+1), avg, 1e-12)
		assert.Equal(t, i+1, s.Len())
		assert.False(t, s.Full())
	}
}

func TestSlidingWindowBoundedMemory(t *testing.T) {
	const k = 16
	s, err := NewSlidingWindow(k)
	require.NoError(t, err)
	ticks := randomTicks(2, 10*k+3)
	ingestAll(t, s, ticks)

	assert.Equal(t, k, s.Len())
	assert.True(t, s.Full())
	assert.Len(t, s.window, k)
	assert.Equal(t, ticks[len(ticks)-k:], s.Window())
}

func TestSlidingWindowSumInvariant(t *testing.T) {
	s, err := NewSlidingWindow(5)
	require.NoError(t, err)
	for _, tick := range randomTicks(3, 100) {
		_, err := s.Add(tick)
		require.NoError(t, err)
		sum := 0.0
		for _, v := range s.Window() {
			sum += v
		}
		assert.InDelta(t, sum, s.Sum(), 1e-9)
	}
}

func TestSlidingWindowIdentityAtSizeOne(t *testing.T) {
	s, err := NewSlidingWindow(1)
	require.NoError(t, err)
	for _, tick := range []float64{4.5, -3, 0, 1e9} {
		avg, err := s.Add(tick)
		require.NoError(t, err)
		assert.Equal(t, tick, avg)
	}
}

func TestSlidingWindowDeterministic(t *testing.T) {
	ticks := randomTicks(4, 500)
	a, err := NewSlidingWindow(13)
	require.NoError(t, err)
	b, err := NewSlidingWindow(13)
	require.NoError(t, err)
	assert.Equal(t, ingestAll(t, a, ticks), ingestAll(t, b, ticks))
}

func TestSlidingWindowRejectsNonFinite(t *testing.T) {
	s, err := NewSlidingWindow(3)
	require.NoError(t, err)
	ingestAll(t, s, []float64{1, 2})

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		avg, err := s.Add(v)
		require.ErrorIs(t, err, ErrNonFiniteTick)
		assert.Equal(t, 1.5, avg)
	}
	assert.Equal(t, []float64{1, 2}, s.Window())
	assert.Equal(t, 3.0, s.Sum())
}

func TestSlidingWindowResync(t *testing.T) {
	// 1e16 swamps the small values; only a recomputed sum recovers them
	// exactly after the large value has left the window.
	ticks := []float64{1e16, 1, 1, 1, 1}
	drifting, err := NewSlidingWindow(2)
	require.NoError(t, err)
	resynced, err := NewSlidingWindow(2, WithResyncEvery(1))
	require.NoError(t, err)

	ingestAll(t, drifting, ticks)
	got := ingestAll(t, resynced, ticks)

	assert.Equal(t, 1.0, got[len(got)-1])
	assert.Equal(t, 2.0, resynced.Sum())
	assert.NotEqual(t, 2.0, drifting.Sum())
}

func TestSlidingWindowReset(t *testing.T) {
	s, err := NewSlidingWindow(2)
	require.NoError(t, err)
	ingestAll(t, s, []float64{7, 8, 9})
	s.Reset()

	assert.Zero(t, s.Len())
	assert.Zero(t, s.Sum())
	assert.Zero(t, s.Average())
	assert.Empty(t, s.Window())
	assert.Equal(t, []float64{10, 15}, ingestAll(t, s, []float64{10, 20}))
}
