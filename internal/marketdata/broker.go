package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/external/kite"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// prevCloseLookbackDays widens the broker history window behind the
// target session so the bar before it supplies the previous close,
// covering long weekends and holiday clusters.
const prevCloseLookbackDays = 7

// BrokerProvider serves session quotes from the authenticated broker
// feed. It is the primary source: richer data, but only usable while a
// daily access token is live.
type BrokerProvider struct {
	client *kite.Client
	logger *logger.Logger
}

// NewBrokerProvider creates the broker-backed provider. A nil client is
// allowed and reported as ErrNoActiveConnection on fetch.
func NewBrokerProvider(client *kite.Client, log *logger.Logger) *BrokerProvider {
	return &BrokerProvider{client: client, logger: log}
}

// Name identifies this provider in provenance and logs
func (p *BrokerProvider) Name() string {
	return "kite"
}

// FetchSessionQuotes fetches one daily bar per symbol for the exact
// session date. Authentication failures abort the whole call so the
// router can fall back; anything scoped to a single symbol only
// increments the failed count.
func (p *BrokerProvider) FetchSessionQuotes(ctx context.Context, symbols []string, session contracts.TradingSession) (map[string]contracts.SymbolQuote, contracts.Provenance, error) {
	prov := contracts.Provenance{Source: p.Name(), Requested: len(symbols)}

	if p.client == nil || !p.client.HasSession() {
		return nil, prov, ErrNoActiveConnection
	}

	tokens, err := p.client.TokenMap(ctx, symbols)
	if err != nil {
		if kite.IsAuthError(err) {
			return nil, prov, fmt.Errorf("resolve instrument tokens: %w", ErrAuthenticationFailed)
		}
		return nil, prov, fmt.Errorf("resolve instrument tokens: %w", err)
	}

	from := session.Date.AddDate(0, 0, -prevCloseLookbackDays)

	out := make(map[string]contracts.SymbolQuote, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, prov, err
		}

		token, ok := tokens[symbol]
		if !ok {
			prov.Failed++
			p.logger.WithField("symbol", symbol).Debug("Symbol missing from instrument dump")
			continue
		}

		candles, err := p.client.DailyOHLC(ctx, token, from, session.Date)
		if err != nil {
			if kite.IsAuthError(err) {
				return nil, prov, fmt.Errorf("fetch daily candles: %w", ErrAuthenticationFailed)
			}
			prov.Failed++
			p.logger.WithError(err).WithField("symbol", symbol).Warn("Daily candle fetch failed")
			continue
		}

		quote, ok := quoteFromCandles(symbol, candles, session)
		if !ok {
			prov.Failed++
			p.logger.WithFields(map[string]interface{}{
				"symbol":  symbol,
				"session": session.DateKey(),
			}).Debug("No candle for session date")
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

// quoteFromCandles picks the candle matching the session date and uses
// the bar before it for the previous close. The primary feed must have
// the exact session; near-misses are a failure, not a substitute.
func quoteFromCandles(symbol string, candles []kite.Candle, session contracts.TradingSession) (contracts.SymbolQuote, bool) {
	target := session.DateKey()

	idx := -1
	for i, candle := range candles {
		if candle.Date.Format("2006-01-02") == target {
			idx = i
			break
		}
	}
	if idx == -1 {
		return contracts.SymbolQuote{}, false
	}

	var prevClose float64
	if idx > 0 {
		prevClose = candles[idx-1].Close
	}

	bar := candles[idx]
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

// LiveQuotes tops up the latest snapshot with live broker quotes during
// a session. Used by the streaming refresh, not the ranking pipeline.
func (p *BrokerProvider) LiveQuotes(ctx context.Context, symbols []string) (map[string]contracts.SymbolQuote, error) {
	if p.client == nil || !p.client.HasSession() {
		return nil, ErrNoActiveConnection
	}

	raw, err := p.client.Quotes(ctx, symbols)
	if err != nil {
		if kite.IsAuthError(err) {
			return nil, fmt.Errorf("fetch live quotes: %w", ErrAuthenticationFailed)
		}
		return nil, fmt.Errorf("fetch live quotes: %w", err)
	}

	out := make(map[string]contracts.SymbolQuote, len(raw))
	for symbol, q := range raw {
		quote := contracts.SymbolQuote{
			Symbol:    symbol,
			LastPrice: q.LastPrice,
			PrevClose: q.PrevClose,
			Open:      q.Open,
			DayHigh:   q.High,
			DayLow:    q.Low,
			Volume:    q.Volume,
			Timestamp: q.Timestamp,
		}
		if quote.Timestamp.IsZero() {
			quote.Timestamp = time.Now()
		}
		if quote.InvalidReason() != "" {
			continue
		}
		out[symbol] = quote
	}
	return out, nil
}
