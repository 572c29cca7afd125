package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesmitty/tickavg/pkg/backtest"
	"github.com/mikesmitty/tickavg/pkg/market"
)

func TestMetricsRecord(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.Tick(market.Tick{Symbol: "AAPL"})
	m.Tick(market.Tick{Symbol: "AAPL"})
	m.Rejected(market.Tick{Symbol: "AAPL"}, errors.New("nan"))
	m.Average(market.Average{Symbol: "AAPL", Value: 12.5, Samples: 3})
	signal := market.Signal{Symbol: "AAPL", Strategy: "windowed_ma", Side: market.Buy}
	m.Fill(backtest.Fill{Signal: signal, Status: backtest.Filled})
	m.Fill(backtest.Fill{Signal: signal, Status: backtest.Failed})
	m.Fill(backtest.Fill{Signal: signal, Status: backtest.Failed})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("AAPL")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.average.WithLabelValues("AAPL")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.samples.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fills.WithLabelValues("AAPL", "windowed_ma", "BUY")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.failedOrders.WithLabelValues("AAPL", "windowed_ma", "BUY")))
}

func TestMetricsStale(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	require.NoError(t, m.Stale())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stale))
	m.Tick(market.Tick{Symbol: "AAPL"})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.stale))
}

func TestNewDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(registry)
	require.NoError(t, err)
	_, err = New(registry)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	m.Average(market.Average{Symbol: "TSLA", Value: 250, Samples: 1})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `tickavg_moving_average{symbol="TSLA"} 250`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
