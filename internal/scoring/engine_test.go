package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketconfig"
)

func newTestEngine() *Engine {
	return NewEngine(marketconfig.Default().Thresholds)
}

// quoteWith builds a quote whose derived movement and volatility hit the
// given percentages exactly, using a reference price of 100.
func quoteWith(volume int64, movementPct, volatilityPct float64) contracts.SymbolQuote {
	return contracts.SymbolQuote{
		Symbol:    "TEST",
		PrevClose: 100,
		Open:      100,
		LastPrice: 100 + movementPct,
		DayHigh:   100 + volatilityPct,
		DayLow:    100,
		Volume:    volume,
	}
}

func TestScoreMaximumInterest(t *testing.T) {
	score := newTestEngine().Score(quoteWith(6_000_000, 6, 9))

	assert.Equal(t, 40, score.VolumeScore)
	assert.Equal(t, 30, score.MovementScore)
	assert.Equal(t, 30, score.VolatilityScore)
	assert.Equal(t, 100, score.Composite)
	assert.Equal(t, contracts.CategoryVeryHigh, score.Category)
	assert.Equal(t, "Very High", score.VolumeBucket)
}

func TestScoreQuietStock(t *testing.T) {
	score := newTestEngine().Score(quoteWith(50_000, 0.5, 1))

	assert.Equal(t, 10, score.VolumeScore)
	assert.Equal(t, 5, score.MovementScore)
	assert.Equal(t, 5, score.VolatilityScore)
	assert.Equal(t, 20, score.Composite)
	assert.Equal(t, contracts.CategoryLow, score.Category)
	assert.Equal(t, "Low", score.VolumeBucket)
}

func TestVolumeBoundary(t *testing.T) {
	engine := newTestEngine()

	at := engine.Score(quoteWith(75_000, 0.5, 1))
	assert.Equal(t, 20, at.VolumeScore)
	assert.Equal(t, "Medium", at.VolumeBucket)

	below := engine.Score(quoteWith(74_999, 0.5, 1))
	assert.Equal(t, 10, below.VolumeScore)
	assert.Equal(t, "Low", below.VolumeBucket)
}

func TestVolumeBucketAgreesWithScore(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		volume     int64
		wantScore  int
		wantBucket string
	}{
		{0, 10, "Low"},
		{74_999, 10, "Low"},
		{75_000, 20, "Medium"},
		{999_999, 20, "Medium"},
		{1_000_000, 30, "High"},
		{4_999_999, 30, "High"},
		{5_000_000, 40, "Very High"},
		{12_000_000, 40, "Very High"},
	}

	for _, tt := range tests {
		score := engine.Score(quoteWith(tt.volume, 2, 4))
		assert.Equal(t, tt.wantScore, score.VolumeScore, "volume=%d", tt.volume)
		assert.Equal(t, tt.wantBucket, score.VolumeBucket, "volume=%d", tt.volume)
	}
}

func TestMovementBands(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		movementPct float64
		want        int
	}{
		{0, 5},
		{0.99, 5},
		{1, 15},
		{2.99, 15},
		{3, 25},
		{4.99, 25},
		{5, 30},
		{11.5, 30},
	}

	for _, tt := range tests {
		score := engine.Score(quoteWith(100_000, tt.movementPct, 1))
		assert.Equal(t, tt.want, score.MovementScore, "movement=%v", tt.movementPct)
	}
}

func TestVolatilityBands(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		volatilityPct float64
		want          int
	}{
		{0, 5},
		{2.9, 5},
		{3, 15},
		{4.9, 15},
		{5, 25},
		{7.9, 25},
		{8, 30},
		{14, 30},
	}

	for _, tt := range tests {
		score := engine.Score(quoteWith(100_000, 0.5, tt.volatilityPct))
		assert.Equal(t, tt.want, score.VolatilityScore, "volatility=%v", tt.volatilityPct)
	}
}

func TestCategoryBoundaries(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name  string
		quote contracts.SymbolQuote
		total int
		want  string
	}{
		{"80 is very high", quoteWith(5_000_000, 4, 4), 80, contracts.CategoryVeryHigh},
		{"75 is high", quoteWith(5_000_000, 6, 1), 75, contracts.CategoryHigh},
		{"60 is high", quoteWith(1_000_000, 4, 1), 60, contracts.CategoryHigh},
		{"50 is medium", quoteWith(1_000_000, 2, 1), 50, contracts.CategoryMedium},
		{"40 is medium", quoteWith(50_000, 1.5, 3.5), 40, contracts.CategoryMedium},
		{"30 is low", quoteWith(50_000, 1.5, 1), 30, contracts.CategoryLow},
		{"20 is low", quoteWith(50_000, 0, 0), 20, contracts.CategoryLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := engine.Score(tt.quote)
			assert.Equal(t, tt.total, score.Composite)
			assert.Equal(t, tt.want, score.Category)
		})
	}
}

func TestMovementUsesAbsoluteChange(t *testing.T) {
	quote := contracts.SymbolQuote{
		Symbol:    "DOWN",
		PrevClose: 100,
		Open:      100,
		LastPrice: 94, // down 6%
		DayHigh:   100,
		DayLow:    94,
		Volume:    100_000,
	}

	score := newTestEngine().Score(quote)
	assert.Equal(t, 30, score.MovementScore, "losers rank as hard as gainers")
	assert.InDelta(t, 6.0, score.MovementPct, 1e-9)
}

func TestReferencePriceFallsBackToOpen(t *testing.T) {
	quote := contracts.SymbolQuote{
		Symbol:    "IPO",
		PrevClose: 0,
		Open:      50,
		LastPrice: 52, // 4% over the open
		DayHigh:   52,
		DayLow:    50,
		Volume:    100_000,
	}

	score := newTestEngine().Score(quote)
	assert.Equal(t, 25, score.MovementScore)
	assert.InDelta(t, 4.0, score.MovementPct, 1e-9)
	assert.InDelta(t, 4.0, score.VolatilityPct, 1e-9)
}

func TestZeroReferenceDegradesGracefully(t *testing.T) {
	score := newTestEngine().Score(contracts.SymbolQuote{Symbol: "EMPTY", Volume: 200_000})

	assert.Equal(t, 0.0, score.MovementPct)
	assert.Equal(t, 0.0, score.VolatilityPct)
	assert.Equal(t, 20+5+5, score.Composite)
}

func TestScoreWithCustomThresholds(t *testing.T) {
	thresholds := marketconfig.Thresholds{
		VolumeBands:         []marketconfig.Band{{Min: 1000, Score: 50, Label: "Busy"}},
		VolumeBaseScore:     5,
		VolumeBaseLabel:     "Quiet",
		MovementBands:       []marketconfig.Band{{Min: 2, Score: 20}},
		MovementBaseScore:   1,
		VolatilityBands:     []marketconfig.Band{{Min: 2, Score: 20}},
		VolatilityBaseScore: 1,
		Categories:          []marketconfig.CategoryBand{{Min: 50, Label: "Hot"}},
		CategoryBaseLabel:   "Cold",
	}

	engine := NewEngine(thresholds)

	hot := engine.Score(quoteWith(2000, 3, 3))
	assert.Equal(t, 90, hot.Composite)
	assert.Equal(t, "Hot", hot.Category)
	assert.Equal(t, "Busy", hot.VolumeBucket)

	cold := engine.Score(quoteWith(10, 0, 0))
	assert.Equal(t, 7, cold.Composite)
	assert.Equal(t, "Cold", cold.Category)
	assert.Equal(t, "Quiet", cold.VolumeBucket)
}
