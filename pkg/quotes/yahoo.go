package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// YahooChart fetches snapshots from the Yahoo Finance chart API. One call
// per symbol returns a year of daily closes plus dividend events, which is
// enough to derive price, 1y return, and trailing dividend yield.
type YahooChart struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooChart builds a chart client with a tuned transport.
func NewYahooChart(baseURL string, timeout time.Duration) *YahooChart {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   50,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &YahooChart{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout, Transport: transport},
	}
}

func (y *YahooChart) Name() string { return "yahoo-chart" }

// chartResponse is the subset of the chart API payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooChart) FetchSnapshot(ctx context.Context, symbol string) (Snapshot, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1y&events=div",
		y.BaseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Snapshot{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.Client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Snapshot{}, fmt.Errorf("yahoo read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	case resp.StatusCode == http.StatusTooManyRequests:
		return Snapshot{}, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return Snapshot{}, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(body, 256))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return Snapshot{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if e := chart.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return Snapshot{}, fmt.Errorf("yahoo api error: %s", e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return Snapshot{}, fmt.Errorf("%w: %s (no data)", ErrSymbolNotFound, symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return Snapshot{}, fmt.Errorf("yahoo: no quote series for %s", symbol)
	}
	closes := result.Indicators.Quote[0].Close

	// Walk the series skipping null bars (holidays etc.)
	var first, last float64
	var lastTS int64
	haveFirst := false
	for i, ts := range result.Timestamp {
		if i >= len(closes) {
			break
		}
		c := toFloat(closes[i])
		if c == 0 {
			continue
		}
		if !haveFirst {
			first = c
			haveFirst = true
		}
		last = c
		lastTS = ts
	}
	if !haveFirst {
		return Snapshot{}, fmt.Errorf("yahoo: no usable closes for %s", symbol)
	}

	snap := Snapshot{Price: last, At: time.Unix(lastTS, 0).UTC()}
	if first != 0 {
		r := (last/first - 1.0) * 100.0
		snap.Ret1YPct = &r
	}
	if dy := trailingDividendYield(result.Events.Dividends, last); dy != nil {
		snap.DivYieldPct = dy
	}
	return snap, nil
}

// trailingDividendYield sums payouts from the last 365 days against the
// current price. A symbol with no dividend events yields exactly 0.
func trailingDividendYield(divs map[string]struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}, price float64) *float64 {
	if price == 0 {
		return nil
	}
	cutoff := time.Now().Add(-365 * 24 * time.Hour).Unix()
	sum := 0.0
	for _, d := range divs {
		if d.Date >= cutoff {
			sum += d.Amount
		}
	}
	yield := (sum / price) * 100.0
	return &yield
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
