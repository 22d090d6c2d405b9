package contracts

// Category labels shared by the composite score and the volume bucket.
// The presentation layer localizes these; the core emits them verbatim.
const (
	CategoryVeryHigh = "Very High"
	CategoryHigh     = "High"
	CategoryMedium   = "Medium"
	CategoryLow      = "Low"
)

// ScoreBreakdown represents the scored view of one SymbolQuote
// SSOT: scoring -> ranking result hand-off
type ScoreBreakdown struct {
	VolumeScore     int    `json:"volume_score"`     // 10-40 band
	MovementScore   int    `json:"movement_score"`   // 5-30 band
	VolatilityScore int    `json:"volatility_score"` // 5-30 band
	Composite       int    `json:"composite"`        // sum, 20-100 by construction
	Category        string `json:"category"`         // from composite thresholds
	VolumeBucket    string `json:"volume_bucket"`    // independent, same volume breakpoints

	// Derived percentages the bands were evaluated against
	MovementPct   float64 `json:"movement_pct"`
	VolatilityPct float64 `json:"volatility_pct"`
}
