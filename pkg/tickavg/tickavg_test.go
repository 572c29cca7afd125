package tickavg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesmitty/tickavg/pkg/backtest"
	"github.com/mikesmitty/tickavg/pkg/config"
	"github.com/mikesmitty/tickavg/pkg/market"
)

func TestBuildStrategies(t *testing.T) {
	tests := []struct {
		strategy string
		name     string
	}{
		{config.StrategyWindowed, "windowed_ma"},
		{config.StrategyNaive, "naive_ma"},
		{config.StrategyCrossover, "sma_crossover"},
		{config.StrategyBreakout, "volatility_breakout"},
		{config.StrategyMACD, "macd"},
		{config.StrategyRSI, "rsi"},
		{config.StrategyBenchmark, "benchmark"},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			cfg := &config.Config{
				Strategy:    tt.strategy,
				Symbols:     []string{"AAPL", "TSLA"},
				WindowSize:  40,
				ShortWindow: 20,
				ResyncEvery: 100,

				InitialCapital: 1000,
			}
			strategies, err := BuildStrategies(cfg)
			require.NoError(t, err)
			require.Len(t, strategies, 2)
			for i, s := range strategies {
				assert.Equal(t, tt.name, s.Name())
				assert.Equal(t, cfg.Symbols[i], s.Symbol())
			}
		})
	}
}

func TestBuildStrategiesErrors(t *testing.T) {
	_, err := BuildStrategies(&config.Config{Strategy: "ema", Symbols: []string{"AAPL"}, WindowSize: 3})
	assert.Error(t, err)

	_, err = BuildStrategies(&config.Config{Strategy: config.StrategyCrossover, Symbols: []string{"AAPL"}, WindowSize: 3, ShortWindow: 5})
	assert.ErrorContains(t, err, "AAPL")
}

func TestEngineOptions(t *testing.T) {
	assert.Empty(t, engineOptions(&config.Config{}))
	assert.Len(t, engineOptions(&config.Config{FailureRate: 0.1, PositionHistory: true}), 2)

	strategies, err := BuildStrategies(&config.Config{Strategy: config.StrategyBenchmark, Symbols: []string{"AAPL"}, InitialCapital: 100})
	require.NoError(t, err)
	engine, err := backtest.NewEngine(100, strategies, engineOptions(&config.Config{FailureRate: 1, PositionHistory: true})...)
	require.NoError(t, err)

	fills := engine.OnTick(market.Tick{Symbol: "AAPL", Price: 10})
	require.Len(t, fills, 1)
	assert.ErrorIs(t, fills[0].Err, backtest.ErrExecutionFailed)
	assert.Len(t, engine.Report().Positions["benchmark_AAPL"], 1)
}
