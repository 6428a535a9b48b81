package quotes

import (
	"context"
	"errors"
	"time"
)

// Snapshot is the raw per-symbol result from a market-data provider, before
// it is folded into a models.Quote. Derived stats are pointers because not
// every provider can produce them.
type Snapshot struct {
	Price       float64
	Ret1YPct    *float64
	DivYieldPct *float64
	At          time.Time
}

// Provider fetches a quote snapshot for a single symbol. Implementations
// must honor ctx cancellation and return one of the sentinel errors below
// when the failure mode is known.
type Provider interface {
	Name() string
	FetchSnapshot(ctx context.Context, symbol string) (Snapshot, error)
}

// Sentinel errors for the failure taxonomy. Anything else from a provider is
// treated as a generic provider error.
var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrRateLimited    = errors.New("rate limited by provider")

	// ErrProviderUnreachable is reported by the enricher when every symbol
	// in a batch failed, at least one of them with a hard provider error.
	ErrProviderUnreachable = errors.New("provider unreachable")
)

// Error kinds attached to unavailable quotes.
const (
	KindTimeout       = "timeout"
	KindUnknownSymbol = "unknown_symbol"
	KindRateLimited   = "rate_limited"
	KindProviderError = "provider_error"
)

// Classify maps a fetch error to its quote error kind.
func Classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrSymbolNotFound):
		return KindUnknownSymbol
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindProviderError
	}
}
