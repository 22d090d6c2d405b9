package contracts

import "time"

// Provenance describes which strategy served a fetch and what was dropped
type Provenance struct {
	Source    string `json:"source"`
	Requested int    `json:"requested"`
	Returned  int    `json:"returned"`
	Failed    int    `json:"failed"`
}

// RankedEntry represents one symbol with its quote and score
type RankedEntry struct {
	Rank  int            `json:"rank"` // 1-based ranking
	Quote SymbolQuote    `json:"quote"`
	Score ScoreBreakdown `json:"score"`
}

// IsTopRanked checks if the entry is in top N ranks
func (e *RankedEntry) IsTopRanked(n int) bool {
	return e.Rank <= n && e.Rank > 0
}

// RankedResult represents one completed pre-market analysis
// SSOT: analyzer -> presentation result hand-off
type RankedResult struct {
	Session     TradingSession `json:"session"`
	Entries     []RankedEntry  `json:"entries"`
	Provenance  Provenance     `json:"provenance"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Top returns the first n entries (all entries when n exceeds the result)
func (r *RankedResult) Top(n int) []RankedEntry {
	if n < 0 {
		n = 0
	}
	if n > len(r.Entries) {
		n = len(r.Entries)
	}
	return r.Entries[:n]
}

// Symbols returns the ranked symbols in order
func (r *RankedResult) Symbols() []string {
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Quote.Symbol)
	}
	return out
}
