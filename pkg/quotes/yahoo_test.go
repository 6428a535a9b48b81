package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func chartJSON(first, last float64, divDate int64, divAmount float64) string {
	now := time.Now().Unix()
	yearAgo := now - 365*24*3600
	divs := "{}"
	if divAmount > 0 {
		divs = fmt.Sprintf(`{"%d":{"amount":%g,"date":%d}}`, divDate, divAmount, divDate)
	}
	return fmt.Sprintf(`{"chart":{"result":[{
		"timestamp":[%d,%d,%d],
		"indicators":{"quote":[{"close":[%g,null,%g]}]},
		"events":{"dividends":%s}
	}],"error":null}}`, yearAgo, yearAgo+86400, now, first, last, divs)
}

func TestYahooChart_Snapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		require.Equal(t, "1y", r.URL.Query().Get("range"))
		fmt.Fprint(w, chartJSON(100, 125, time.Now().Unix()-100, 1.0))
	}))
	defer ts.Close()

	y := NewYahooChart(ts.URL, 2*time.Second)
	snap, err := y.FetchSnapshot(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Equal(t, 125.0, snap.Price)
	require.NotNil(t, snap.Ret1YPct)
	require.InDelta(t, 25.0, *snap.Ret1YPct, 0.001)
	require.NotNil(t, snap.DivYieldPct)
	require.InDelta(t, 0.8, *snap.DivYieldPct, 0.001) // 1.0 / 125 * 100
	require.False(t, snap.At.IsZero())
}

func TestYahooChart_NoDividendsYieldsZero(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON(200, 220, 0, 0))
	}))
	defer ts.Close()

	y := NewYahooChart(ts.URL, 2*time.Second)
	snap, err := y.FetchSnapshot(context.Background(), "GOOGL")
	require.NoError(t, err)
	require.NotNil(t, snap.DivYieldPct)
	require.Equal(t, 0.0, *snap.DivYieldPct)
}

func TestYahooChart_StaleDividendsExcluded(t *testing.T) {
	twoYearsAgo := time.Now().Add(-2 * 365 * 24 * time.Hour).Unix()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON(100, 100, twoYearsAgo, 5.0))
	}))
	defer ts.Close()

	y := NewYahooChart(ts.URL, 2*time.Second)
	snap, err := y.FetchSnapshot(context.Background(), "KO")
	require.NoError(t, err)
	require.NotNil(t, snap.DivYieldPct)
	require.Equal(t, 0.0, *snap.DivYieldPct)
}

func TestYahooChart_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	y := NewYahooChart(ts.URL, 2*time.Second)
	_, err := y.FetchSnapshot(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestYahooChart_APIErrorNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer ts.Close()

	y := NewYahooChart(ts.URL, 2*time.Second)
	_, err := y.FetchSnapshot(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestYahooChart_RateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	y := NewYahooChart(ts.URL, 2*time.Second)
	_, err := y.FetchSnapshot(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestYahooChart_AllNullCloses(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{
			"timestamp":[1,2],
			"indicators":{"quote":[{"close":[null,null]}]},
			"events":{}
		}],"error":null}}`)
	}))
	defer ts.Close()

	y := NewYahooChart(ts.URL, 2*time.Second)
	_, err := y.FetchSnapshot(context.Background(), "HALT")
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, KindTimeout},
		{fmt.Errorf("wrap: %w", ErrSymbolNotFound), KindUnknownSymbol},
		{ErrRateLimited, KindRateLimited},
		{fmt.Errorf("connection refused"), KindProviderError},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Classify(c.err), "err=%v", c.err)
	}
}
