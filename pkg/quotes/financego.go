package quotes

import (
	"context"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
)

// FinanceGo is the quote-only provider built on piquette/finance-go. It is
// cheaper than the chart client (one quote endpoint call, no history) but
// cannot derive the 1y return, so that stat stays null.
type FinanceGo struct{}

func NewFinanceGo() *FinanceGo { return &FinanceGo{} }

func (f *FinanceGo) Name() string { return "yahoo-quote" }

func (f *FinanceGo) FetchSnapshot(ctx context.Context, symbol string) (Snapshot, error) {
	type result struct {
		q   *finance.Equity
		err error
	}
	// equity.Get has no context support; run it in a goroutine so callers
	// still get timely cancellation.
	ch := make(chan result, 1)
	go func() {
		q, err := equity.Get(symbol)
		ch <- result{q, err}
	}()

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return Snapshot{}, res.err
		}
		if res.q == nil || res.q.RegularMarketPrice == 0 {
			return Snapshot{}, ErrSymbolNotFound
		}
		snap := Snapshot{
			Price: res.q.RegularMarketPrice,
			At:    time.Unix(int64(res.q.RegularMarketTime), 0).UTC(),
		}
		if snap.At.Year() < 2000 {
			snap.At = time.Now().UTC()
		}
		if y := res.q.TrailingAnnualDividendYield; y > 0 {
			pct := y * 100.0
			snap.DivYieldPct = &pct
		}
		return snap, nil
	}
}
