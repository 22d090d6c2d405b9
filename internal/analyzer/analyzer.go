package analyzer

import (
	"context"
	"sort"
	"time"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/calendar"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/marketdata"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/scoring"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// Analyzer runs the pre-market interest pipeline: resolve the session,
// fetch quotes through the data port, score, and rank.
// SSOT: ranking order and rank assignment live here only
type Analyzer struct {
	calendar *calendar.Calendar
	port     marketdata.Port
	engine   *scoring.Engine
	logger   *logger.Logger
}

// New creates an analyzer over the given collaborators
func New(cal *calendar.Calendar, port marketdata.Port, engine *scoring.Engine, log *logger.Logger) *Analyzer {
	return &Analyzer{
		calendar: cal,
		port:     port,
		engine:   engine,
		logger:   log,
	}
}

// Analyze ranks the given symbols by pre-market interest for the last
// completed trading day relative to ref (zero ref means now).
//
// Only calendar configuration problems surface as errors. Data-layer
// failures degrade to a smaller result set, down to an empty one whose
// provenance reports every requested symbol as failed; symbols without
// data are omitted, never zero-filled.
func (a *Analyzer) Analyze(ctx context.Context, symbols []string, ref time.Time) (contracts.RankedResult, error) {
	session, err := a.calendar.ResolveLastTradingDay(ref)
	if err != nil {
		return contracts.RankedResult{}, err
	}

	result := contracts.RankedResult{
		Session:     session,
		GeneratedAt: time.Now(),
	}

	quotes, prov, err := a.port.FetchSessionQuotes(ctx, symbols, session)
	if err != nil {
		prov.Failed = prov.Requested
		result.Provenance = prov

		a.logger.WithError(err).WithFields(map[string]interface{}{
			"session":   session.DateKey(),
			"requested": len(symbols),
		}).Error("All market data providers failed")
		return result, nil
	}
	result.Provenance = prov

	entries := make([]contracts.RankedEntry, 0, len(quotes))
	for _, quote := range quotes {
		entries = append(entries, contracts.RankedEntry{
			Quote: quote,
			Score: a.engine.Score(quote),
		})
	}

	sortEntries(entries)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	result.Entries = entries

	fields := map[string]interface{}{
		"session":  session.DateKey(),
		"source":   prov.Source,
		"ranked":   len(entries),
		"failed":   prov.Failed,
		"universe": len(symbols),
	}
	if len(entries) > 0 {
		fields["top_symbol"] = entries[0].Quote.Symbol
		fields["top_score"] = entries[0].Score.Composite
	}
	a.logger.WithFields(fields).Info("Pre-market ranking completed")

	return result, nil
}

// sortEntries orders by composite score descending, then volume
// descending. The trailing symbol comparison makes the order total, so
// ranking is deterministic and re-sorting is a no-op.
func sortEntries(entries []contracts.RankedEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score.Composite != entries[j].Score.Composite {
			return entries[i].Score.Composite > entries[j].Score.Composite
		}
		if entries[i].Quote.Volume != entries[j].Quote.Volume {
			return entries[i].Quote.Volume > entries[j].Quote.Volume
		}
		return entries[i].Quote.Symbol < entries[j].Quote.Symbol
	})
}
