package quotes

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goalfolio/goalfolio/pkg/logger"
	"github.com/goalfolio/goalfolio/pkg/metrics"
	"github.com/goalfolio/goalfolio/pkg/models"
)

// Enricher turns a symbol list into quotes via bounded concurrent fetches.
// A failed symbol becomes an unavailable Quote; it never aborts the batch.
type Enricher struct {
	Provider       Provider
	FetchTimeout   time.Duration
	MaxConcurrency int
}

func NewEnricher(p Provider, fetchTimeout time.Duration, maxConcurrency int) *Enricher {
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Enricher{Provider: p, FetchTimeout: fetchTimeout, MaxConcurrency: maxConcurrency}
}

// Enrich fetches one quote per symbol. Results are positional: out[i]
// always belongs to symbols[i], regardless of fetch completion order.
// Every symbol gets exactly one fetch attempt.
//
// The returned error is ErrProviderUnreachable only when every symbol in a
// non-empty batch failed and at least one failure was a hard provider error;
// callers still receive the full quote slice in that case.
func (e *Enricher) Enrich(ctx context.Context, symbols []string) ([]models.Quote, error) {
	out := make([]models.Quote, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.MaxConcurrency)

	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			out[i] = e.fetchOne(gctx, sym)
			return nil
		})
	}
	_ = g.Wait()

	failed, hard := 0, 0
	for _, q := range out {
		if q.Unavailable {
			failed++
			if q.ErrorKind != KindUnknownSymbol {
				hard++
			}
		}
	}
	if failed == len(out) && hard > 0 {
		return out, ErrProviderUnreachable
	}
	return out, nil
}

func (e *Enricher) fetchOne(ctx context.Context, symbol string) models.Quote {
	fctx, cancel := context.WithTimeout(ctx, e.FetchTimeout)
	defer cancel()

	start := time.Now()
	snap, err := e.Provider.FetchSnapshot(fctx, symbol)
	metrics.QuoteFetchLatency.WithLabelValues(e.Provider.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		kind := Classify(err)
		metrics.QuoteFetchErrors.WithLabelValues(e.Provider.Name(), kind).Inc()
		logger.Log.Warn("quote fetch failed",
			zap.String("symbol", symbol),
			zap.String("kind", kind),
			zap.Error(err))
		return models.Quote{
			Symbol:      symbol,
			Timestamp:   time.Now().UTC(),
			Unavailable: true,
			ErrorKind:   kind,
		}
	}

	price := snap.Price
	return models.Quote{
		Symbol:      symbol,
		Price:       &price,
		Ret1YPct:    snap.Ret1YPct,
		DivYieldPct: snap.DivYieldPct,
		Timestamp:   snap.At,
	}
}
