package metrics

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mikesmitty/tickavg/pkg/backtest"
	"github.com/mikesmitty/tickavg/pkg/market"
)

const namespace = "tickavg"

type Metrics struct {
	gatherer prometheus.Gatherer

	ticks        *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	average      *prometheus.GaugeVec
	samples      *prometheus.GaugeVec
	fills        *prometheus.CounterVec
	failedOrders *prometheus.CounterVec
	stale        prometheus.Gauge
}

func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		gatherer: registry,
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of ticks received",
		}, []string{"symbol"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_rejected_total",
			Help:      "Number of non-finite ticks dropped",
		}, []string{"symbol"}),
		average: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "moving_average",
			Help:      "Latest moving average",
		}, []string{"symbol"}),
		samples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_samples",
			Help:      "Number of ticks in the moving average window",
		}, []string{"symbol"}),
		fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fills_total",
			Help:      "Number of signals settled",
		}, []string{"symbol", "strategy", "side"}),
		failedOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_orders_total",
			Help:      "Number of signals that could not be settled",
		}, []string{"symbol", "strategy", "side"}),
		stale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_stale",
			Help:      "1 while the tick feed has gone quiet for a watchdog interval",
		}),
	}
	err := errors.Join(
		registry.Register(m.ticks),
		registry.Register(m.rejected),
		registry.Register(m.average),
		registry.Register(m.samples),
		registry.Register(m.fills),
		registry.Register(m.failedOrders),
		registry.Register(m.stale),
	)
	return m, err
}

func (m *Metrics) Tick(tick market.Tick) {
	m.ticks.WithLabelValues(tick.Symbol).Inc()
	m.stale.Set(0)
}

// Stale flags the feed as quiet until the next tick. It matches the watchdog
// callback signature.
func (m *Metrics) Stale() error {
	m.stale.Set(1)
	return nil
}

func (m *Metrics) Rejected(tick market.Tick, _ error) {
	m.rejected.WithLabelValues(tick.Symbol).Inc()
}

func (m *Metrics) Average(avg market.Average) {
	m.average.WithLabelValues(avg.Symbol).Set(avg.Value)
	m.samples.WithLabelValues(avg.Symbol).Set(float64(avg.Samples))
}

func (m *Metrics) Fill(fill backtest.Fill) {
	labels := []string{fill.Signal.Symbol, fill.Signal.Strategy, fill.Signal.Side.String()}
	if fill.Status == backtest.Filled {
		m.fills.WithLabelValues(labels...).Inc()
		return
	}
	m.failedOrders.WithLabelValues(labels...).Inc()
}

// Handler serves /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
