package scoring

import (
	"math"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketconfig"
)

// Engine converts validated session quotes into banded interest scores.
// It is a pure function of its thresholds: no clock, no I/O, no failure
// modes. Malformed quotes must be rejected upstream.
type Engine struct {
	thresholds marketconfig.Thresholds
}

// NewEngine creates a scoring engine over the given threshold bands
func NewEngine(thresholds marketconfig.Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Score computes the score breakdown for one quote.
//
// Movement and volatility percentages derive from the reference price
// (previous close, else day open). The composite is the plain sum of
// the three component scores; the bands are exhaustive so it needs no
// clamping. The volume bucket label comes from the same matched volume
// band as the volume score, so the two cannot disagree on boundaries.
func (e *Engine) Score(quote contracts.SymbolQuote) contracts.ScoreBreakdown {
	movementPct, volatilityPct := derivedPercents(quote)

	volumeScore, bucket := e.volumeBand(quote.Volume)
	movementScore := bandScore(e.thresholds.MovementBands, movementPct, e.thresholds.MovementBaseScore)
	volatilityScore := bandScore(e.thresholds.VolatilityBands, volatilityPct, e.thresholds.VolatilityBaseScore)

	composite := volumeScore + movementScore + volatilityScore

	return contracts.ScoreBreakdown{
		VolumeScore:     volumeScore,
		MovementScore:   movementScore,
		VolatilityScore: volatilityScore,
		Composite:       composite,
		Category:        e.category(composite),
		VolumeBucket:    bucket,
		MovementPct:     movementPct,
		VolatilityPct:   volatilityPct,
	}
}

// derivedPercents computes absolute price movement and intraday range,
// both relative to the reference price. A non-positive reference means
// the quote slipped past validation; both percentages degrade to zero
// rather than dividing by it.
func derivedPercents(quote contracts.SymbolQuote) (movementPct, volatilityPct float64) {
	ref := quote.ReferencePrice()
	if ref <= 0 {
		return 0, 0
	}

	movementPct = math.Abs(quote.LastPrice-ref) / ref * 100
	volatilityPct = (quote.DayHigh - quote.DayLow) / ref * 100
	return movementPct, volatilityPct
}

// volumeBand matches the volume against the shared volume breakpoints,
// returning both the score and the display bucket from the same band.
func (e *Engine) volumeBand(volume int64) (int, string) {
	for _, band := range e.thresholds.VolumeBands {
		if float64(volume) >= band.Min {
			return band.Score, band.Label
		}
	}
	return e.thresholds.VolumeBaseScore, e.thresholds.VolumeBaseLabel
}

// bandScore returns the score of the first band whose inclusive lower
// bound the value meets. Bands are ordered highest-first.
func bandScore(bands []marketconfig.Band, value float64, base int) int {
	for _, band := range bands {
		if value >= band.Min {
			return band.Score
		}
	}
	return base
}

func (e *Engine) category(composite int) string {
	for _, band := range e.thresholds.Categories {
		if composite >= band.Min {
			return band.Label
		}
	}
	return e.thresholds.CategoryBaseLabel
}
