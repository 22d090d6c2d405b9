package contracts

import "time"

// SymbolQuote represents one symbol's observed facts for a single session
// SSOT: provider -> analyzer data hand-off
type SymbolQuote struct {
	Symbol    string    `json:"symbol"`
	LastPrice float64   `json:"last_price"`
	PrevClose float64   `json:"prev_close"`
	Open      float64   `json:"open"`
	DayHigh   float64   `json:"day_high"`
	DayLow    float64   `json:"day_low"`
	Volume    int64     `json:"volume"` // traded shares
	Timestamp time.Time `json:"timestamp"`
}

// ReferencePrice returns the baseline for percentage calculations:
// the previous session's close, or the day's open when unavailable.
func (q *SymbolQuote) ReferencePrice() float64 {
	if q.PrevClose > 0 {
		return q.PrevClose
	}
	return q.Open
}

// InvalidReason returns a short reason when the quote cannot be scored,
// or an empty string when it is valid. Quotes failing here are dropped
// and counted, never zeroed or propagated.
func (q *SymbolQuote) InvalidReason() string {
	switch {
	case q.Volume < 0:
		return "negative volume"
	case q.LastPrice < 0 || q.PrevClose < 0 || q.Open < 0:
		return "negative price"
	case q.DayLow < 0:
		return "negative day low"
	case q.DayHigh < q.DayLow:
		return "inverted day range"
	case q.ReferencePrice() <= 0:
		return "no reference price"
	}
	return ""
}

// IsValid checks if the quote can be scored
func (q *SymbolQuote) IsValid() bool {
	return q.InvalidReason() == ""
}
