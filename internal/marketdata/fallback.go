package marketdata

import (
	"context"
	"fmt"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// Router tries providers in strict priority order and serves the first
// non-empty result. A provider is skipped when it errors or returns
// zero rows; both are recoverable and only logged. When every provider
// fails the last error is returned.
type Router struct {
	providers []Port
	logger    *logger.Logger
}

// NewRouter creates a router over the given providers, highest priority
// first. Nil providers are dropped.
func NewRouter(log *logger.Logger, providers ...Port) *Router {
	kept := make([]Port, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &Router{providers: kept, logger: log}
}

// Name identifies the router in provenance and logs
func (r *Router) Name() string {
	return "fallback"
}

// FetchSessionQuotes implements Port over the provider chain. The
// provenance of the serving provider is passed through untouched so
// callers can see which feed answered and how many symbols it dropped.
func (r *Router) FetchSessionQuotes(ctx context.Context, symbols []string, session contracts.TradingSession) (map[string]contracts.SymbolQuote, contracts.Provenance, error) {
	var lastErr error

	for _, provider := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, contracts.Provenance{Requested: len(symbols)}, err
		}

		quotes, prov, err := provider.FetchSessionQuotes(ctx, symbols, session)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", provider.Name(), err)
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"provider": provider.Name(),
				"session":  session.DateKey(),
			}).Warn("Provider unavailable, trying next")
			continue
		}

		if len(quotes) == 0 {
			lastErr = fmt.Errorf("%s: %w", provider.Name(), ErrNoData)
			r.logger.WithFields(map[string]interface{}{
				"provider": provider.Name(),
				"session":  session.DateKey(),
			}).Warn("Provider returned no rows, trying next")
			continue
		}

		r.logger.WithFields(map[string]interface{}{
			"provider":  provider.Name(),
			"requested": prov.Requested,
			"returned":  prov.Returned,
			"failed":    prov.Failed,
		}).Info("Session quotes fetched")
		return quotes, prov, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured: %w", ErrNoData)
	}
	return nil, contracts.Provenance{Requested: len(symbols)}, lastErr
}
