package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/config"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json", Env: "test"})
}

func sampleResult(symbols ...string) contracts.RankedResult {
	loc := time.FixedZone("IST", 5*3600+30*60)

	entries := make([]contracts.RankedEntry, 0, len(symbols))
	for i, symbol := range symbols {
		entries = append(entries, contracts.RankedEntry{
			Rank: i + 1,
			Quote: contracts.SymbolQuote{
				Symbol:    symbol,
				PrevClose: 100,
				Open:      100,
				LastPrice: 102,
				DayHigh:   103,
				DayLow:    99,
				Volume:    1_000_000,
			},
			Score: contracts.ScoreBreakdown{Composite: 100 - i, Category: "High"},
		})
	}

	return contracts.RankedResult{
		Session: contracts.TradingSession{
			Date:         time.Date(2025, time.August, 22, 0, 0, 0, 0, loc),
			IsTradingDay: true,
		},
		Entries: entries,
		Provenance: contracts.Provenance{
			Source:    "yahoo",
			Requested: len(symbols),
			Returned:  len(symbols),
		},
		GeneratedAt: time.Date(2025, time.August, 23, 12, 0, 0, 0, loc),
	}
}

func TestStoreEmpty(t *testing.T) {
	store := NewStore(0, testLogger())

	_, ok := store.Latest()
	assert.False(t, ok)
	assert.True(t, store.IsStale())

	stats := store.Stats()
	assert.False(t, stats.HasResult)
	assert.True(t, stats.Stale)
	assert.Zero(t, stats.Entries)
}

func TestStoreSetAndLatest(t *testing.T) {
	store := NewStore(5*time.Minute, testLogger())
	result := sampleResult("RELIANCE", "TCS")

	store.Set(result)

	got, ok := store.Latest()
	require.True(t, ok)
	assert.Equal(t, result.Entries, got.Entries)
	assert.Equal(t, "2025-08-22", got.Session.DateKey())
	assert.False(t, store.IsStale())
}

func TestStoreStaleness(t *testing.T) {
	store := NewStore(5*time.Minute, testLogger())

	base := time.Now()
	store.now = func() time.Time { return base }
	store.Set(sampleResult("RELIANCE"))

	store.now = func() time.Time { return base.Add(4 * time.Minute) }
	assert.False(t, store.IsStale())

	store.now = func() time.Time { return base.Add(6 * time.Minute) }
	assert.True(t, store.IsStale())
	assert.True(t, store.Stats().Stale)
}

func TestStoreSetReplacesSnapshot(t *testing.T) {
	store := NewStore(0, testLogger())

	store.Set(sampleResult("RELIANCE"))
	store.Set(sampleResult("TCS", "INFY"))

	got, ok := store.Latest()
	require.True(t, ok)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "TCS", got.Entries[0].Quote.Symbol)

	stats := store.Stats()
	assert.True(t, stats.HasResult)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, "2025-08-22", stats.Session)
}
