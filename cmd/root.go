/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mikesmitty/tickavg/pkg/tickavg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tickavg",
	Short: "Sliding-window moving averages over an MQTT tick feed",
	Long: `tickavg subscribes to price ticks on <mqtt-prefix>/ticks/<symbol>, keeps a
moving average over the last window-size ticks of every symbol and runs a
trading strategy against them. Averages and strategy fills are published back
to the broker as Home Assistant sensors and exported as Prometheus metrics.`,
	Run: tickavg.Root(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tickavg.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Int("window-size", 40, "moving average window, in ticks")
	rootCmd.PersistentFlags().Int("resync-every", 0, "recompute the running sum every n ticks (0 disables)")
	rootCmd.PersistentFlags().String("strategy", "windowed", "strategy: windowed, naive, crossover, breakout, macd, rsi or benchmark")
	rootCmd.PersistentFlags().StringSlice("symbols", []string{"AAPL"}, "symbols to trade")
	rootCmd.PersistentFlags().Int("short-window", 20, "short SMA window for the crossover strategy")
	rootCmd.PersistentFlags().Float64("initial-capital", 100000, "capital allocated to each strategy")
	rootCmd.PersistentFlags().Float64("failure-rate", 0, "probability of a simulated execution failure per order")
	rootCmd.PersistentFlags().Bool("position-history", false, "keep every account change for the session summary")
	rootCmd.PersistentFlags().String("mqtt-broker", "", "mqtt broker url")
	rootCmd.PersistentFlags().String("mqtt-prefix", "tickavg", "mqtt topic prefix")
	rootCmd.PersistentFlags().Int("mqtt-sample-interval", 1, "publish every nth average per symbol")
	rootCmd.PersistentFlags().String("metrics-addr", ":9090", "prometheus listen address, empty disables")
	rootCmd.PersistentFlags().Duration("watchdog-timeout", 1*time.Minute, "flag the feed stale after this long without ticks")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".tickavg" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tickavg")
	}

	viper.SetEnvPrefix("tickavg")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
