package quotes

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goalfolio/goalfolio/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeProvider serves canned snapshots with optional per-symbol errors and
// delays, and counts calls per symbol.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int

	snaps  map[string]Snapshot
	errs   map[string]error
	delays map[string]time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		calls:  make(map[string]int),
		snaps:  make(map[string]Snapshot),
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
	}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchSnapshot(ctx context.Context, symbol string) (Snapshot, error) {
	f.mu.Lock()
	f.calls[symbol]++
	f.mu.Unlock()

	if d := f.delays[symbol]; d > 0 {
		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-time.After(d):
		}
	}
	if err := f.errs[symbol]; err != nil {
		return Snapshot{}, err
	}
	if snap, ok := f.snaps[symbol]; ok {
		return snap, nil
	}
	return Snapshot{}, ErrSymbolNotFound
}

func (f *fakeProvider) callCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

func snapAt(price float64) Snapshot {
	return Snapshot{Price: price, At: time.Date(2025, 6, 2, 15, 4, 5, 0, time.UTC)}
}

func TestEnrich_OrderFollowsInput(t *testing.T) {
	f := newFakeProvider()
	// later symbols complete first
	f.snaps["AAPL"] = snapAt(210)
	f.snaps["MSFT"] = snapAt(430)
	f.snaps["QQQ"] = snapAt(500)
	f.delays["AAPL"] = 60 * time.Millisecond
	f.delays["MSFT"] = 30 * time.Millisecond

	e := NewEnricher(f, time.Second, 4)
	out, err := e.Enrich(context.Background(), []string{"AAPL", "MSFT", "QQQ"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "AAPL", out[0].Symbol)
	require.Equal(t, "MSFT", out[1].Symbol)
	require.Equal(t, "QQQ", out[2].Symbol)
	require.NotNil(t, out[0].Price)
	require.Equal(t, 210.0, *out[0].Price)
	require.Equal(t, 500.0, *out[2].Price)
}

func TestEnrich_PartialFailureDoesNotAbortBatch(t *testing.T) {
	f := newFakeProvider()
	f.snaps["AAPL"] = snapAt(210)
	f.delays["MSFT"] = time.Second // will exceed the fetch timeout

	e := NewEnricher(f, 50*time.Millisecond, 2)
	out, err := e.Enrich(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.False(t, out[0].Unavailable)
	require.NotNil(t, out[0].Price)

	require.True(t, out[1].Unavailable)
	require.Nil(t, out[1].Price)
	require.Equal(t, KindTimeout, out[1].ErrorKind)

	// both symbols got exactly one attempt
	require.Equal(t, 1, f.callCount("AAPL"))
	require.Equal(t, 1, f.callCount("MSFT"))
}

func TestEnrich_AllHardFailuresIsUnreachable(t *testing.T) {
	f := newFakeProvider()
	f.errs["AAPL"] = errors.New("connection refused")
	f.errs["MSFT"] = errors.New("connection refused")

	e := NewEnricher(f, time.Second, 2)
	out, err := e.Enrich(context.Background(), []string{"AAPL", "MSFT"})
	require.ErrorIs(t, err, ErrProviderUnreachable)
	// quotes are still returned alongside the error
	require.Len(t, out, 2)
	for _, q := range out {
		require.True(t, q.Unavailable)
		require.Equal(t, KindProviderError, q.ErrorKind)
	}
}

func TestEnrich_AllUnknownSymbolsIsNotUnreachable(t *testing.T) {
	f := newFakeProvider()
	// every symbol unknown: the provider is fine, the input is bad

	e := NewEnricher(f, time.Second, 2)
	out, err := e.Enrich(context.Background(), []string{"NOPE1", "NOPE2"})
	require.NoError(t, err)
	for _, q := range out {
		require.True(t, q.Unavailable)
		require.Equal(t, KindUnknownSymbol, q.ErrorKind)
	}
}

func TestEnrich_EmptyBatch(t *testing.T) {
	e := NewEnricher(newFakeProvider(), time.Second, 2)
	out, err := e.Enrich(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestEnrich_ErrorKinds(t *testing.T) {
	f := newFakeProvider()
	f.errs["RATED"] = ErrRateLimited
	f.errs["GONE"] = ErrSymbolNotFound
	f.snaps["GOOD"] = snapAt(100)

	e := NewEnricher(f, time.Second, 3)
	out, err := e.Enrich(context.Background(), []string{"RATED", "GONE", "GOOD"})
	require.NoError(t, err)
	require.Equal(t, KindRateLimited, out[0].ErrorKind)
	require.Equal(t, KindUnknownSymbol, out[1].ErrorKind)
	require.False(t, out[2].Unavailable)
}
