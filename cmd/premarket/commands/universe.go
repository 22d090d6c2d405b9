package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/universe"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/httputil"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Print the resolved symbol universe",
	Long: `Prints the resolved NSE symbol universe, one symbol per line.

The focus list is printed by default. --full fetches the index
constituents list and falls back to the focus list when the fetch
fails.

Example:
  go run ./cmd/premarket universe
  go run ./cmd/premarket universe --full`,
	RunE: runUniverse,
}

var universeFull bool

func init() {
	rootCmd.AddCommand(universeCmd)

	// Flags
	universeCmd.Flags().BoolVar(&universeFull, "full", false, "fetch the full index constituents list")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Create HTTP client
	httpClient := httputil.New(cfg, log)

	// 4. Resolve the universe
	uni := universe.NewProvider(cfg.Universe, httpClient, log)
	symbols := uni.Symbols(context.Background(), universeFull)

	for _, symbol := range symbols {
		fmt.Println(symbol)
	}

	return nil
}
