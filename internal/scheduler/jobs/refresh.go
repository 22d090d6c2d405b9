package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/analyzer"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/api"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/calendar"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/universe"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// RefreshJob recomputes the pre-market ranking and publishes it to the
// snapshot store and websocket hub. Scheduled ticks run only inside the
// pre-market window; Refresh itself runs any time, which is what the
// manual API trigger uses.
// SSOT: the refresh pipeline (universe -> analyze -> publish) is here only
type RefreshJob struct {
	universe *universe.Provider
	analyzer *analyzer.Analyzer
	calendar *calendar.Calendar
	store    *api.Store
	hub      *api.Hub
	schedule string
	logger   *logger.Logger
}

// NewRefreshJob creates the pre-market refresh job. The hub may be nil
// when no websocket layer is running.
func NewRefreshJob(uni *universe.Provider, an *analyzer.Analyzer, cal *calendar.Calendar, store *api.Store, hub *api.Hub, schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		universe: uni,
		analyzer: an,
		calendar: cal,
		store:    store,
		hub:      hub,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "premarket_refresh"
}

// Schedule returns the cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one scheduled refresh. Ticks outside the pre-market
// window (holidays and weekends included) are skipped, not failed.
func (j *RefreshJob) Run(ctx context.Context) error {
	phase := j.calendar.MarketPhase(time.Time{})
	if phase != calendar.PhasePreMarket {
		j.logger.WithField("phase", phase).Debug("Skipping refresh outside pre-market window")
		return nil
	}

	_, err := j.Refresh(ctx)
	return err
}

// Refresh resolves the universe, runs the analysis, and publishes the
// result. Only calendar configuration problems return an error.
func (j *RefreshJob) Refresh(ctx context.Context) (contracts.RankedResult, error) {
	symbols := j.universe.Symbols(ctx, false)

	result, err := j.analyzer.Analyze(ctx, symbols, time.Time{})
	if err != nil {
		return contracts.RankedResult{}, fmt.Errorf("analyze pre-market interest: %w", err)
	}

	j.store.Set(result)
	if j.hub != nil {
		j.hub.BroadcastResult(result)
	}

	j.logger.WithFields(map[string]interface{}{
		"session":  result.Session.DateKey(),
		"universe": len(symbols),
		"ranked":   len(result.Entries),
		"source":   result.Provenance.Source,
	}).Info("Pre-market refresh published")

	return result, nil
}
