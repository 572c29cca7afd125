package tickavg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/mikesmitty/tickavg/pkg/backtest"
	"github.com/mikesmitty/tickavg/pkg/config"
	"github.com/mikesmitty/tickavg/pkg/market"
	"github.com/mikesmitty/tickavg/pkg/metrics"
	"github.com/mikesmitty/tickavg/pkg/mqtt"
	"github.com/mikesmitty/tickavg/pkg/pipeline"
	"github.com/mikesmitty/tickavg/pkg/router"
	"github.com/mikesmitty/tickavg/pkg/strategy"
	"github.com/mikesmitty/tickavg/pkg/swma"
	"github.com/mikesmitty/tickavg/pkg/watchdog"
)

func Root() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		slogOpts := slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if viper.GetBool("debug") {
			slogOpts.Level = slog.LevelDebug
		}
		log := slog.New(slog.NewTextHandler(os.Stderr, &slogOpts))
		slog.SetDefault(log)

		cfg, err := config.Load(viper.GetViper())
		errChk(err)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
		defer stop()

		errChk(Run(ctx, cfg))
		slog.Info("shut down")
	}
}

func errChk(err error) {
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func swmaOptions(cfg *config.Config) []swma.Option {
	if cfg.ResyncEvery > 0 {
		return []swma.Option{swma.WithResyncEvery(cfg.ResyncEvery)}
	}
	return nil
}

// BuildStrategies creates one strategy of the configured kind per symbol.
func BuildStrategies(cfg *config.Config) ([]strategy.Strategy, error) {
	opts := swmaOptions(cfg)

	strategies := make([]strategy.Strategy, 0, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		var s strategy.Strategy
		var err error
		switch cfg.Strategy {
		case config.StrategyWindowed:
			s, err = strategy.NewWindowedMovingAverage(symbol, cfg.WindowSize, opts...)
		case config.StrategyNaive:
			s, err = strategy.NewNaiveMovingAverage(symbol, cfg.WindowSize)
		case config.StrategyCrossover:
			s, err = strategy.NewCrossover(symbol, cfg.ShortWindow, cfg.WindowSize)
		case config.StrategyBreakout:
			s = strategy.NewVolatilityBreakout(symbol)
		case config.StrategyMACD:
			s, err = strategy.NewMACD(symbol, strategy.MACDFast, strategy.MACDSlow, strategy.MACDSignal)
		case config.StrategyRSI:
			s, err = strategy.NewRSI(symbol, strategy.RSIPeriod, strategy.RSIOverbought, strategy.RSIOversold)
		case config.StrategyBenchmark:
			s, err = strategy.NewBenchmark(symbol, cfg.InitialCapital)
		default:
			err = fmt.Errorf("unknown strategy: %s", cfg.Strategy)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", symbol, err)
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

// Run reads ticks from the broker and publishes moving averages and strategy
// fills until ctx is done or a stage fails.
func Run(ctx context.Context, cfg *config.Config) error {
	opts := swmaOptions(cfg)

	strategies, err := BuildStrategies(cfg)
	if err != nil {
		return err
	}
	engine, err := backtest.NewEngine(cfg.InitialCapital, strategies, engineOptions(cfg)...)
	if err != nil {
		return err
	}

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	brokerURL, err := url.Parse(cfg.MQTTBroker)
	if err != nil {
		return fmt.Errorf("mqtt broker: %w", err)
	}
	mc := mqtt.NewClient(brokerURL, cfg.MQTTPrefix, cfg.MQTTSampleRate)
	if err := mc.Connect(); err != nil {
		return err
	}
	defer mc.Disconnect()

	if err := mc.HomeAssistant(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(-1)

	tickCh, err := mc.TickSource(ctx)
	if err != nil {
		return err
	}
	tickFan := router.NewFan[market.Tick]("ticks", tickCh)
	tickFan.SetDebug(cfg.Debug)

	avgCh, avgFn, err := pipeline.Averages(tickFan.Subscribe("averages"), m, cfg.WindowSize, opts...)
	if err != nil {
		return err
	}
	fillCh, fillFn := pipeline.Fills(tickFan.Subscribe("engine"), m, engine)
	staleFn := watchdog.NewWatchdog(ctx, cfg.WatchdogTimeout, m.Stale, tickFan.Subscribe("watchdog"))

	slog.Debug("starting pipeline", "windowSize", cfg.WindowSize, "strategy", cfg.Strategy, "symbols", cfg.Symbols)
	g.Go(tickFan.Run)
	g.Go(avgFn)
	g.Go(fillFn)
	g.Go(staleFn)
	g.Go(mc.GetPublisher(avgCh, fillCh))
	g.Go(mc.SwitchFn(ctx, "publishing", func() { mc.SetPublishing(true) }, func() { mc.SetPublishing(false) }, mc.Publishing))

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	slog.Debug("waiting for goroutines to finish")
	if err := g.Wait(); err != nil {
		return err
	}
	logReport(engine.Report())
	return nil
}

func engineOptions(cfg *config.Config) []backtest.Option {
	var opts []backtest.Option
	if cfg.FailureRate > 0 {
		opts = append(opts, backtest.WithFailureRate(cfg.FailureRate, time.Now().UnixNano()))
	}
	if cfg.PositionHistory {
		opts = append(opts, backtest.WithPositionHistory())
	}
	return opts
}

func logReport(report *backtest.Report) {
	slog.Info("session summary", "ticks", report.Ticks, "signals", report.Signals, "fills", report.Fills, "failures", report.Failures)
	for key, account := range report.Accounts {
		slog.Info("account", "strategy", key, "cash", account.Cash, "quantity", account.Quantity, "avgPrice", account.AvgPrice, "positionChanges", len(report.Positions[key]))
	}
}
