package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/calendar"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketconfig"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketdata"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/scoring"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/config"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json", Env: "test"})
}

// Saturday noon: every analysis resolves to Friday 2025-08-22
func testClock() time.Time {
	loc := time.FixedZone("IST", 5*3600+30*60)
	return time.Date(2025, time.August, 23, 12, 0, 0, 0, loc)
}

func newTestCalendar(t *testing.T, mutate func(*marketconfig.Config)) *calendar.Calendar {
	t.Helper()

	cfg := marketconfig.Default()
	if mutate != nil {
		mutate(cfg)
	}

	cal, err := calendar.New(cfg, testLogger())
	require.NoError(t, err)
	return cal.WithClock(testClock)
}

// stubPort serves a fixed quote set, or an error
type stubPort struct {
	name   string
	quotes map[string]contracts.SymbolQuote
	err    error
}

func (s *stubPort) Name() string { return s.name }

func (s *stubPort) FetchSessionQuotes(ctx context.Context, symbols []string, session contracts.TradingSession) (map[string]contracts.SymbolQuote, contracts.Provenance, error) {
	prov := contracts.Provenance{Source: s.name, Requested: len(symbols)}
	if s.err != nil {
		return nil, prov, s.err
	}

	out := make(map[string]contracts.SymbolQuote, len(s.quotes))
	for _, symbol := range symbols {
		if q, ok := s.quotes[symbol]; ok {
			out[symbol] = q
		} else {
			prov.Failed++
		}
	}
	prov.Returned = len(out)
	return out, prov, nil
}

func quote(symbol string, volume int64, movementPct float64) contracts.SymbolQuote {
	return contracts.SymbolQuote{
		Symbol:    symbol,
		PrevClose: 100,
		Open:      100,
		LastPrice: 100 + movementPct,
		DayHigh:   100 + movementPct,
		DayLow:    100,
		Volume:    volume,
	}
}

func newAnalyzer(t *testing.T, port marketdata.Port) *Analyzer {
	t.Helper()
	engine := scoring.NewEngine(marketconfig.Default().Thresholds)
	return New(newTestCalendar(t, nil), port, engine, testLogger())
}

func TestAnalyzeRanksByCompositeDescending(t *testing.T) {
	port := &stubPort{name: "stub", quotes: map[string]contracts.SymbolQuote{
		"QUIET":  quote("QUIET", 50_000, 0.2),   // 10+5+5   = 20
		"BUSY":   quote("BUSY", 6_000_000, 8),   // 40+30+30 = 100
		"MIDDLE": quote("MIDDLE", 1_200_000, 2), // 30+15+15 = 60
	}}

	result, err := newAnalyzer(t, port).Analyze(context.Background(), []string{"QUIET", "BUSY", "MIDDLE"}, time.Time{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, []string{"BUSY", "MIDDLE", "QUIET"}, result.Symbols())
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.Equal(t, 3, result.Entries[2].Rank)
	assert.Equal(t, "2025-08-22", result.Session.DateKey())
}

func TestAnalyzeTieBreaksOnVolumeDescending(t *testing.T) {
	// Same composite band everywhere; only volume inside the band differs
	port := &stubPort{name: "stub", quotes: map[string]contracts.SymbolQuote{
		"SMALLER": quote("SMALLER", 1_000_000, 2),
		"BIGGER":  quote("BIGGER", 4_000_000, 2),
	}}

	result, err := newAnalyzer(t, port).Analyze(context.Background(), []string{"SMALLER", "BIGGER"}, time.Time{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, result.Entries[0].Score.Composite, result.Entries[1].Score.Composite)
	assert.Equal(t, []string{"BIGGER", "SMALLER"}, result.Symbols())
}

func TestAnalyzeOrderIsDeterministic(t *testing.T) {
	// Full ties: equal composite and equal volume
	port := &stubPort{name: "stub", quotes: map[string]contracts.SymbolQuote{
		"AAA": quote("AAA", 2_000_000, 2),
		"BBB": quote("BBB", 2_000_000, 2),
		"CCC": quote("CCC", 2_000_000, 2),
	}}

	a := newAnalyzer(t, port)
	symbols := []string{"AAA", "BBB", "CCC"}

	first, err := a.Analyze(context.Background(), symbols, time.Time{})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := a.Analyze(context.Background(), symbols, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, first.Symbols(), again.Symbols())
	}
}

func TestAnalyzeSortIsIdempotent(t *testing.T) {
	port := &stubPort{name: "stub", quotes: map[string]contracts.SymbolQuote{
		"A": quote("A", 6_000_000, 6),
		"B": quote("B", 6_000_000, 0.5),
		"C": quote("C", 90_000, 2),
		"D": quote("D", 90_000, 2),
	}}

	result, err := newAnalyzer(t, port).Analyze(context.Background(), []string{"A", "B", "C", "D"}, time.Time{})
	require.NoError(t, err)

	resorted := make([]contracts.RankedEntry, len(result.Entries))
	copy(resorted, result.Entries)
	sortEntries(resorted)

	assert.Equal(t, result.Entries, resorted)
}

func TestAnalyzeOmitsMissingSymbols(t *testing.T) {
	port := &stubPort{name: "stub", quotes: map[string]contracts.SymbolQuote{
		"KNOWN": quote("KNOWN", 1_000_000, 2),
	}}

	universe := []string{"KNOWN", "GONE1", "GONE2", "GONE3"}
	result, err := newAnalyzer(t, port).Analyze(context.Background(), universe, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, []string{"KNOWN"}, result.Symbols())
	assert.Equal(t, len(universe)-len(result.Entries), result.Provenance.Failed)
	assert.Equal(t, 4, result.Provenance.Requested)
	assert.Equal(t, 1, result.Provenance.Returned)
}

func TestAnalyzeDegradesToEmptyOnDataFailure(t *testing.T) {
	port := &stubPort{name: "stub", err: marketdata.ErrNoData}

	result, err := newAnalyzer(t, port).Analyze(context.Background(), []string{"A", "B"}, time.Time{})
	require.NoError(t, err, "data-layer failure must not surface")

	assert.Empty(t, result.Entries)
	assert.Equal(t, 2, result.Provenance.Requested)
	assert.Equal(t, 2, result.Provenance.Failed)
	assert.Equal(t, "2025-08-22", result.Session.DateKey())
}

func TestAnalyzeSurfacesCalendarConfigurationError(t *testing.T) {
	cal := newTestCalendar(t, func(cfg *marketconfig.Config) {
		cfg.Calendar.MaxLookbackDays = 1
		cfg.Calendar.Holidays = []string{"2025-08-22"}
	})

	engine := scoring.NewEngine(marketconfig.Default().Thresholds)
	port := &stubPort{name: "stub"}
	a := New(cal, port, engine, testLogger())

	_, err := a.Analyze(context.Background(), []string{"A"}, time.Time{})
	require.Error(t, err)

	var cfgErr *calendar.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestAnalyzeFallbackIsTransparent(t *testing.T) {
	quotes := map[string]contracts.SymbolQuote{
		"RELIANCE":  quote("RELIANCE", 5_200_000, 1.4),
		"TATASTEEL": quote("TATASTEEL", 7_800_000, 0.3),
	}

	failingPrimary := &stubPort{name: "kite", err: marketdata.ErrAuthenticationFailed}
	secondary := &stubPort{name: "yahoo", quotes: quotes}

	withBroken := marketdata.NewRouter(testLogger(), failingPrimary, secondary)
	withoutPrimary := marketdata.NewRouter(testLogger(), secondary)

	universe := []string{"RELIANCE", "TATASTEEL"}

	degraded, err := newAnalyzer(t, withBroken).Analyze(context.Background(), universe, time.Time{})
	require.NoError(t, err)

	direct, err := newAnalyzer(t, withoutPrimary).Analyze(context.Background(), universe, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, direct.Symbols(), degraded.Symbols())
	assert.Equal(t, direct.Provenance, degraded.Provenance)
	for i := range direct.Entries {
		assert.Equal(t, direct.Entries[i].Score, degraded.Entries[i].Score)
	}
}
