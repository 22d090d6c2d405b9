package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/config"
)

var (
	// Global flags
	configFile string
	envFile    string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "premarket",
	Short: "NSE pre-market interest ranking",
	Long: `Indian Markets pre-market dashboard CLI

Ranks NSE symbols by pre-market interest from the last completed
trading session and serves the result over REST and websocket.

Usage:
  go run ./cmd/premarket [command]

Examples:
  go run ./cmd/premarket analyze
  go run ./cmd/premarket analyze --symbols RELIANCE,TCS --top 5
  go run ./cmd/premarket api
  go run ./cmd/premarket scheduler start
  go run ./cmd/premarket universe`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "market config YAML (default is the built-in NSE calendar)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the environment and applies the global flags on top
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if configFile != "" {
		cfg.MarketConfigPath = configFile
	}
	if verbose {
		cfg.LogLevel = "debug"
		cfg.LogFormat = "console"
	}

	return cfg, nil
}
