package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/api"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/calendar"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketdata"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// liveTopN bounds how many ranked symbols get live top-ups; one quote
// batch on the broker side
const liveTopN = 20

// LiveQuotesJob pushes live broker quotes for the top ranked symbols to
// websocket subscribers during the trading session. Without a broker
// session the job is a no-op; the ranking itself never depends on it.
type LiveQuotesJob struct {
	broker   *marketdata.BrokerProvider
	calendar *calendar.Calendar
	store    *api.Store
	hub      *api.Hub
	schedule string
	logger   *logger.Logger
}

// NewLiveQuotesJob creates the live quote top-up job
func NewLiveQuotesJob(broker *marketdata.BrokerProvider, cal *calendar.Calendar, store *api.Store, hub *api.Hub, schedule string, log *logger.Logger) *LiveQuotesJob {
	return &LiveQuotesJob{
		broker:   broker,
		calendar: cal,
		store:    store,
		hub:      hub,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *LiveQuotesJob) Name() string {
	return "live_quotes"
}

// Schedule returns the cron schedule
func (j *LiveQuotesJob) Schedule() string {
	return j.schedule
}

// Run fetches live quotes for the currently ranked symbols and
// broadcasts them. Ticks outside the live session, without a stored
// ranking, or without a broker session are skipped.
func (j *LiveQuotesJob) Run(ctx context.Context) error {
	phase := j.calendar.MarketPhase(time.Time{})
	if phase != calendar.PhaseLiveMarket {
		j.logger.WithField("phase", phase).Debug("Skipping live quotes outside the trading session")
		return nil
	}

	if j.broker == nil || j.hub == nil {
		return nil
	}

	result, ok := j.store.Latest()
	if !ok || len(result.Entries) == 0 {
		j.logger.Debug("No ranking snapshot to top up")
		return nil
	}

	symbols := make([]string, 0, liveTopN)
	for _, entry := range result.Top(liveTopN) {
		symbols = append(symbols, entry.Quote.Symbol)
	}

	quotes, err := j.broker.LiveQuotes(ctx, symbols)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoActiveConnection) {
			j.logger.Debug("No broker session, skipping live quotes")
			return nil
		}
		return fmt.Errorf("fetch live quotes: %w", err)
	}
	if len(quotes) == 0 {
		return nil
	}

	j.hub.BroadcastLive(quotes)

	j.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"returned":  len(quotes),
	}).Debug("Live quotes broadcast")

	return nil
}
