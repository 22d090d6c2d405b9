package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/analyzer"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/calendar"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/external/kite"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/external/yahoo"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketconfig"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketdata"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/scoring"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/universe"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/httputil"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank pre-market interest once and print JSON",
	Long: `Runs one pre-market interest analysis and prints the ranked
result to stdout as JSON.

The ranked session is the last completed trading day before --date
(today when omitted). Symbols come from --symbols, or the focus list,
or the full index universe with --full-universe.

Example:
  go run ./cmd/premarket analyze
  go run ./cmd/premarket analyze --date 2025-08-25 --top 10
  go run ./cmd/premarket analyze --symbols RELIANCE,TCS,INFY`,
	RunE: runAnalyze,
}

var (
	analyzeDate    string
	analyzeSymbols string
	analyzeFull    bool
	analyzeTop     int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "reference date YYYY-MM-DD (default today)")
	analyzeCmd.Flags().StringVar(&analyzeSymbols, "symbols", "", "comma-separated NSE symbols (default focus list)")
	analyzeCmd.Flags().BoolVar(&analyzeFull, "full-universe", false, "rank the full index constituents list")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 0, "keep only the top N entries (0 keeps all)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load market calendar and thresholds
	marketCfg, err := marketconfig.LoadOrDefault(cfg.MarketConfigPath)
	if err != nil {
		return fmt.Errorf("load market config: %w", err)
	}

	cal, err := calendar.New(marketCfg, log)
	if err != nil {
		return fmt.Errorf("build calendar: %w", err)
	}

	// 4. Create HTTP client
	httpClient := httputil.New(cfg, log)

	// 5. Create market data providers (broker first when a session exists)
	yahooClient := yahoo.NewClient(cfg.Yahoo, httpClient, log)
	public := marketdata.NewPublicProvider(yahooClient, cal.Location(), log)

	var port marketdata.Port
	if cfg.HasKiteSession() {
		kiteClient := kite.NewClient(cfg.Kite, httpClient, log)
		broker := marketdata.NewBrokerProvider(kiteClient, log)
		port = marketdata.NewRouter(log, broker, public)
	} else {
		port = marketdata.NewRouter(log, public)
	}

	// 6. Create scoring engine and analyzer
	engine := scoring.NewEngine(marketCfg.Thresholds)
	an := analyzer.New(cal, port, engine, log)

	// 7. Resolve the symbol universe
	symbols := splitSymbols(analyzeSymbols)
	if len(symbols) == 0 {
		uni := universe.NewProvider(cfg.Universe, httpClient, log)
		symbols = uni.Symbols(ctx, analyzeFull)
	}

	// 8. Resolve the reference time
	var ref time.Time
	if analyzeDate != "" {
		ref, err = time.ParseInLocation("2006-01-02", analyzeDate, cal.Location())
		if err != nil {
			return fmt.Errorf("parse --date: %w", err)
		}
	}

	// 9. Analyze
	result, err := an.Analyze(ctx, symbols, ref)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if analyzeTop > 0 {
		result.Entries = result.Top(analyzeTop)
	}

	// 10. Print JSON
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// splitSymbols parses a comma-separated symbol list, dropping empties
func splitSymbols(csv string) []string {
	if csv == "" {
		return nil
	}

	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		symbol := strings.ToUpper(strings.TrimSpace(p))
		if symbol != "" {
			out = append(out, symbol)
		}
	}
	return out
}
