package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/analyzer"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/api"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/api/handlers"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/calendar"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/external/kite"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/external/yahoo"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketconfig"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketdata"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/scheduler"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/scheduler/jobs"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/scoring"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/universe"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/httputil"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST and websocket server for the pre-market dashboard.

This command:
- serves the latest pre-market ranking over REST
- streams ranking and live quote updates over websocket
- runs the scheduled refresh loop when SCHEDULER_ENABLED is true

Endpoints:
  GET  /health              - Health check
  GET  /api/v1/ranking      - Latest pre-market ranking
  GET  /api/v1/ranking/top  - Top N entries (?n=10)
  POST /api/v1/refresh      - Trigger a refresh now
  WS   /ws                  - Snapshot on connect, then pushed updates

Example:
  go run ./cmd/premarket api
  go run ./cmd/premarket api --port 8086`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Indian Markets Pre-Market API ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

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
	var broker *marketdata.BrokerProvider
	if cfg.HasKiteSession() {
		kiteClient := kite.NewClient(cfg.Kite, httpClient, log)
		broker = marketdata.NewBrokerProvider(kiteClient, log)
		port = marketdata.NewRouter(log, broker, public)
		log.Info("Broker session configured, Kite feed is primary")
	} else {
		port = marketdata.NewRouter(log, public)
		log.Info("No broker session, running on the public feed only")
	}

	// 6. Create scoring engine and analyzer
	engine := scoring.NewEngine(marketCfg.Thresholds)
	an := analyzer.New(cal, port, engine, log)

	// 7. Create universe provider
	uni := universe.NewProvider(cfg.Universe, httpClient, log)

	// 8. Create snapshot store and websocket hub
	store := api.NewStore(0, log)
	hub := api.NewHub(store, log)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// 9. Create scheduled jobs
	refreshJob := jobs.NewRefreshJob(uni, an, cal, store, hub, cfg.Scheduler.RefreshSpec, log)
	liveJob := jobs.NewLiveQuotesJob(broker, cal, store, hub, cfg.Scheduler.LiveSpec, log)

	// 10. Create handlers and router
	rankingHandler := handlers.NewRankingHandler(store, refreshJob, log)
	router := api.NewRouter(rankingHandler, hub, store, log)

	// 11. Create server
	server := api.New(cfg, log, router)

	// 12. Start scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(cfg.Scheduler, log)
		if err := sched.AddJob(refreshJob); err != nil {
			return fmt.Errorf("register refresh job: %w", err)
		}
		if err := sched.AddJob(liveJob); err != nil {
			return fmt.Errorf("register live quotes job: %w", err)
		}
		sched.Start()
	} else {
		log.Warn("Scheduler disabled, rankings only refresh via POST /api/v1/refresh")
	}

	// 13. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/v1/ranking")
	fmt.Println("  GET  /api/v1/ranking/top?n=10")
	fmt.Println("  POST /api/v1/refresh")
	fmt.Println("  WS   /ws")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Stop feeding the hub before closing its clients
	if sched != nil {
		sched.Stop()
	}
	hubCancel()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
