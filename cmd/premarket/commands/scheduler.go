package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/analyzer"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/api"
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

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the refresh scheduler",
	Long: `Runs the cron refresh loop without the API server, or inspects it.

The standalone loop registers the pre-market refresh job only. The
live quote stream needs websocket clients and runs inside the api
command.

Subcommands:
  start   - run the scheduler daemon
  list    - list registered jobs
  run     - run one job now and wait for it
  status  - show job statistics

Example:
  go run ./cmd/premarket scheduler start
  go run ./cmd/premarket scheduler list
  go run ./cmd/premarket scheduler run premarket_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler daemon",
		Long: `Starts the scheduler and keeps it running until interrupted.

Registered jobs:
- premarket_refresh: every 5 minutes inside the 09:00-09:15 IST
  pre-open window on trading days (SCHEDULER_REFRESH_SPEC)

The scheduler stops on Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job now and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job statistics",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Indian Markets Pre-Market Scheduler ===")

	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob fires asynchronously; wait for the attempt to land in the
	// stats so a one-shot invocation does not exit mid-run
	var stat scheduler.JobStats
	for {
		time.Sleep(200 * time.Millisecond)

		s, ok := sched.GetJobStats()[jobName]
		if ok && s.TotalRuns > 0 {
			stat = s
			break
		}
	}

	if stat.FailureCount > 0 {
		history, err := sched.GetJobHistory(jobName)
		if err == nil {
			if failed := history.GetFailedResults(); len(failed) > 0 {
				return fmt.Errorf("job %s failed: %s", jobName, failed[len(failed)-1].Error)
			}
		}
		return fmt.Errorf("job %s failed", jobName)
	}

	fmt.Printf("✅ %s completed successfully\n", jobName)
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}

		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func initScheduler() (*scheduler.Scheduler, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load market calendar and thresholds
	marketCfg, err := marketconfig.LoadOrDefault(cfg.MarketConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load market config: %w", err)
	}

	cal, err := calendar.New(marketCfg, log)
	if err != nil {
		return nil, fmt.Errorf("build calendar: %w", err)
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

	// 7. Create universe provider
	uni := universe.NewProvider(cfg.Universe, httpClient, log)

	// 8. Create snapshot store (no hub without websocket clients)
	store := api.NewStore(0, log)

	// 9. Create scheduler and register jobs
	sched := scheduler.New(cfg.Scheduler, log)
	if err := sched.AddJob(jobs.NewRefreshJob(uni, an, cal, store, nil, cfg.Scheduler.RefreshSpec, log)); err != nil {
		return nil, fmt.Errorf("register refresh job: %w", err)
	}

	return sched, nil
}
