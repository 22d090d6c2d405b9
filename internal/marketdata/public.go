package marketdata

import (
	"context"
	"time"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/external/yahoo"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// wideningWindows are the lookback sizes the public provider tries in
// order before concluding a symbol has no usable history.
var wideningWindows = []int{7, 30, 90}

// PublicProvider serves session quotes from the public chart feed. It
// is the unauthenticated fallback: always reachable, but sparser, so it
// widens its lookback window instead of insisting on an exact-day hit.
type PublicProvider struct {
	client *yahoo.Client
	loc    *time.Location
	logger *logger.Logger
}

// NewPublicProvider creates the public-feed provider. Bars carry UTC
// instants; loc is the market timezone used to assign them to sessions.
func NewPublicProvider(client *yahoo.Client, loc *time.Location, log *logger.Logger) *PublicProvider {
	return &PublicProvider{client: client, loc: loc, logger: log}
}

// Name identifies this provider in provenance and logs
func (p *PublicProvider) Name() string {
	return "yahoo"
}

// FetchSessionQuotes fetches daily bars per symbol, preferring the bar
// on the session date and falling back to the latest bar before it.
// Per-symbol failures only increment the failed count.
func (p *PublicProvider) FetchSessionQuotes(ctx context.Context, symbols []string, session contracts.TradingSession) (map[string]contracts.SymbolQuote, contracts.Provenance, error) {
	prov := contracts.Provenance{Source: p.Name(), Requested: len(symbols)}

	out := make(map[string]contracts.SymbolQuote, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, prov, err
		}

		quote, ok := p.fetchSymbol(ctx, symbol, session)
		if !ok {
			prov.Failed++
			continue
		}

		if reason := quote.InvalidReason(); reason != "" {
			prov.Failed++
			p.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"reason": reason,
			}).Warn("Dropping invalid quote row")
			continue
		}

		out[symbol] = quote
	}

	prov.Returned = len(out)
	return out, prov, nil
}

func (p *PublicProvider) fetchSymbol(ctx context.Context, symbol string, session contracts.TradingSession) (contracts.SymbolQuote, bool) {
	target := session.DateKey()

	for _, days := range wideningWindows {
		bars, err := p.client.DailyBars(ctx, symbol, days)
		if err != nil {
			p.logger.WithError(err).WithField("symbol", symbol).Warn("Chart fetch failed")
			return contracts.SymbolQuote{}, false
		}
		if len(bars) == 0 {
			continue
		}

		idx := p.pickBar(bars, target)
		if idx == -1 {
			continue
		}

		var prevClose float64
		if idx > 0 {
			prevClose = bars[idx-1].Close
		}

		bar := bars[idx]
		return contracts.SymbolQuote{
			Symbol:    symbol,
			LastPrice: bar.Close,
			PrevClose: prevClose,
			Open:      bar.Open,
			DayHigh:   bar.High,
			DayLow:    bar.Low,
			Volume:    bar.Volume,
			Timestamp: bar.Date,
		}, true
	}

	p.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"session": target,
	}).Debug("No bars in any lookback window")
	return contracts.SymbolQuote{}, false
}

// pickBar returns the index of the bar dated exactly target, else the
// latest bar before it, else -1. Bars are chronologically sorted and
// date keys compare lexicographically.
func (p *PublicProvider) pickBar(bars []yahoo.Bar, target string) int {
	best := -1
	for i, bar := range bars {
		key := bar.Date.In(p.loc).Format("2006-01-02")
		if key == target {
			return i
		}
		if key < target {
			best = i
		}
	}
	return best
}
