package marketdata

import (
	"context"
	"errors"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
)

// Standard data-layer errors. Providers wrap underlying infrastructure
// errors with these so callers can branch with errors.Is.
var (
	// ErrNoActiveConnection means the provider has no usable session,
	// typically because no broker access token was configured.
	ErrNoActiveConnection = errors.New("no active broker connection")

	// ErrAuthenticationFailed means the upstream rejected our
	// credentials (expired or revoked access token).
	ErrAuthenticationFailed = errors.New("broker authentication failed (check access token)")

	// ErrNoData means the upstream answered but had no rows for the
	// requested session.
	ErrNoData = errors.New("no market data returned")
)

// Port supplies validated session quotes for a set of trading symbols.
//
// Implementations tolerate per-symbol failures: a symbol that cannot be
// resolved or fetched is absent from the result and counted in the
// provenance, never zero-filled. The result key set is always a subset
// of the requested symbols. Rows with negative volume or prices are
// dropped the same way.
type Port interface {
	Name() string
	FetchSessionQuotes(ctx context.Context, symbols []string, session contracts.TradingSession) (map[string]contracts.SymbolQuote, contracts.Provenance, error)
}
