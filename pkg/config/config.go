package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Strategy names accepted by the strategy setting.
const (
	StrategyWindowed  = "windowed"
	StrategyNaive     = "naive"
	StrategyCrossover = "crossover"
	StrategyBreakout  = "breakout"
	StrategyMACD      = "macd"
	StrategyRSI       = "rsi"
	StrategyBenchmark = "benchmark"
)

type Config struct {
	Debug bool `mapstructure:"debug"`

	WindowSize  int `mapstructure:"window-size" validate:"gt=0"`
	ResyncEvery int `mapstructure:"resync-every" validate:"gte=0"`

	Strategy        string   `mapstructure:"strategy" validate:"oneof=windowed naive crossover breakout macd rsi benchmark"`
	Symbols         []string `mapstructure:"symbols" validate:"min=1,dive,required"`
	ShortWindow     int      `mapstructure:"short-window" validate:"gte=0,required_if=Strategy crossover"`
	InitialCapital  float64  `mapstructure:"initial-capital" validate:"gt=0"`
	FailureRate     float64  `mapstructure:"failure-rate" validate:"gte=0,lte=1"`
	PositionHistory bool     `mapstructure:"position-history"`

	MQTTBroker     string `mapstructure:"mqtt-broker" validate:"required,url"`
	MQTTPrefix     string `mapstructure:"mqtt-prefix" validate:"required"`
	MQTTSampleRate int    `mapstructure:"mqtt-sample-interval" validate:"gt=0"`

	MetricsAddr     string        `mapstructure:"metrics-addr" validate:"omitempty,hostname_port"`
	WatchdogTimeout time.Duration `mapstructure:"watchdog-timeout" validate:"gt=0"`
}

// Load reads the settings bound into v and validates them.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	validate := validator.New()
	validate.RegisterStructValidation(crossoverWindows, Config{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// The short window only matters to the crossover strategy.
func crossoverWindows(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Strategy == StrategyCrossover && cfg.ShortWindow >= cfg.WindowSize {
		sl.ReportError(cfg.ShortWindow, "ShortWindow", "ShortWindow", "ltfield", "WindowSize")
	}
}
