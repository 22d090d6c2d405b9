package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketconfig"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// Market phases reported by MarketPhase
const (
	PhasePreMarket  = "pre_market"
	PhaseLiveMarket = "live_market"
	PhasePostMarket = "post_market"
	PhaseClosed     = "closed"
)

// ErrSearchExhausted signals that no trading day exists within the
// configured search bound.
var ErrSearchExhausted = errors.New("no trading day found within search bound")

// ConfigurationError is fatal: the holiday set is malformed or absurdly
// dense. It is surfaced immediately and never retried.
type ConfigurationError struct {
	Bound int
	From  time.Time
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("trading calendar configuration error: %v (searched %d days back from %s)",
		e.Err, e.Bound, e.From.Format("2006-01-02"))
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Calendar resolves trading days for one market from an injected holiday
// set and session clock. Pure given its inputs; the only wall-clock read
// is the injectable now func, used when a caller passes the zero time.
type Calendar struct {
	holidays map[string]bool
	loc      *time.Location
	maxSteps int

	// Session clock, minutes since midnight market-local
	preOpenMin   int
	openMin      int
	closeMin     int
	postCloseMin int

	now    func() time.Time
	logger *logger.Logger
}

// New builds a Calendar from validated market configuration
func New(cfg *marketconfig.Config, log *logger.Logger) (*Calendar, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load market timezone: %w", err)
	}

	if cfg.Calendar.MaxLookbackDays <= 0 {
		return nil, &ConfigurationError{
			Bound: cfg.Calendar.MaxLookbackDays,
			Err:   errors.New("max lookback days must be positive"),
		}
	}

	return &Calendar{
		holidays:     cfg.HolidaySet(),
		loc:          loc,
		maxSteps:     cfg.Calendar.MaxLookbackDays,
		preOpenMin:   clockMinutes(cfg.Session.PreMarketOpen),
		openMin:      clockMinutes(cfg.Session.MarketOpen),
		closeMin:     clockMinutes(cfg.Session.MarketClose),
		postCloseMin: clockMinutes(cfg.Session.PostMarketClose),
		now:          time.Now,
		logger:       log,
	}, nil
}

// WithClock overrides the wall-clock source. Tests inject fixed clocks
// here so resolution is deterministic.
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	c.now = now
	return c
}

// Location returns the market timezone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// ResolveLastTradingDay returns the last completed trading day for the
// given reference instant. The zero time means "now". A reference day
// that is itself a trading day counts only while the instant is strictly
// before the session open; from the open onward the session is in flight
// and the previous day is the last completed one.
//
// Exhausting the search bound is a ConfigurationError: the holiday set
// is malformed or absurdly dense, and the caller must stop.
func (c *Calendar) ResolveLastTradingDay(ref time.Time) (contracts.TradingSession, error) {
	if ref.IsZero() {
		ref = c.now()
	}
	ref = ref.In(c.loc)

	candidate := c.midnight(ref)
	if !c.IsTradingDay(candidate) || minutesIntoDay(ref) >= c.openMin {
		candidate = candidate.AddDate(0, 0, -1)
	}

	for steps := 0; steps < c.maxSteps; steps++ {
		if c.IsTradingDay(candidate) {
			c.logger.WithFields(map[string]interface{}{
				"reference": ref.Format(time.RFC3339),
				"resolved":  candidate.Format("2006-01-02"),
				"steps":     steps,
			}).Debug("Resolved last trading day")

			return contracts.TradingSession{Date: candidate, IsTradingDay: true}, nil
		}
		candidate = candidate.AddDate(0, 0, -1)
	}

	return contracts.TradingSession{}, &ConfigurationError{
		Bound: c.maxSteps,
		From:  ref,
		Err:   ErrSearchExhausted,
	}
}

// IsTradingDay reports whether d is a weekday outside the holiday set.
// Weekend-ness and holiday membership are independent conditions; a
// holiday that falls on a weekend is rejected by both.
func (c *Calendar) IsTradingDay(d time.Time) bool {
	if isWeekend(d) {
		return false
	}
	if c.isHoliday(d) {
		return false
	}
	return true
}

// MarketPhase classifies an instant into the session phase used by the
// scheduler and the status endpoint. Non-trading days are always closed.
func (c *Calendar) MarketPhase(at time.Time) string {
	if at.IsZero() {
		at = c.now()
	}
	at = at.In(c.loc)

	if !c.IsTradingDay(c.midnight(at)) {
		return PhaseClosed
	}

	m := minutesIntoDay(at)
	switch {
	case m >= c.preOpenMin && m < c.openMin:
		return PhasePreMarket
	case m >= c.openMin && m < c.closeMin:
		return PhaseLiveMarket
	case m >= c.closeMin && m < c.postCloseMin:
		return PhasePostMarket
	default:
		return PhaseClosed
	}
}

func (c *Calendar) isHoliday(d time.Time) bool {
	return c.holidays[d.Format("2006-01-02")]
}

func (c *Calendar) midnight(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func minutesIntoDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// clockMinutes converts a validated HH:MM string to minutes since
// midnight. Malformed input maps to zero; validation happens upstream.
func clockMinutes(hhmm string) int {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}
