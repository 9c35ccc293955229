package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinledger/bnc/internal/valuation"
)

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient(DefaultBaseURL, "key")
		assert.Equal(t, DefaultBaseURL, c.baseURL)
		assert.Equal(t, "key", c.apiKey)
		assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
		assert.Equal(t, 3, c.maxRetries)
		assert.Equal(t, time.Second, c.retryBackoff)
		assert.Equal(t, "1m", c.interval)
	})

	t.Run("with options", func(t *testing.T) {
		hc := &http.Client{}
		c := NewClient(DefaultBaseURL, "",
			WithHTTPClient(hc),
			WithTimeout(5*time.Second),
			WithRetries(1, time.Millisecond),
			WithInterval("1h"),
			WithRateLimit(0),
			WithCacheTTL(time.Minute),
		)
		assert.Same(t, hc, c.httpClient)
		assert.Equal(t, 5*time.Second, hc.Timeout)
		assert.Equal(t, 1, c.maxRetries)
		assert.Equal(t, "1h", c.interval)
	})
}

func TestAPIError(t *testing.T) {
	err := newAPIError(400, []byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	assert.Equal(t, -1121, err.Code)
	assert.Equal(t, "binance api error 400 (code -1121): Invalid symbol.", err.Error())
	assert.False(t, err.IsRetryable())

	err = newAPIError(503, []byte("<html>down</html>"))
	assert.Equal(t, "binance api error 503: Service Unavailable", err.Error())
	assert.True(t, err.IsRetryable())

	assert.True(t, newAPIError(429, nil).IsRetryable())
	assert.False(t, newAPIError(404, nil).IsRetryable())
}

func TestAlignMs(t *testing.T) {
	assert.Equal(t, int64(60_000), alignMs(119_999, "1m"))
	assert.Equal(t, int64(120_000), alignMs(120_000, "1m"))
	assert.Equal(t, int64(0), alignMs(3_599_999, "1h"))
	assert.Equal(t, int64(-60_000), alignMs(-1, "1m"))
	assert.Equal(t, int64(123), alignMs(123, "7m"))
	assert.True(t, ValidInterval("15m"))
	assert.False(t, ValidInterval("7m"))
}

const sushiKline = `[[1640909220000,"99.5","101.0","99.0","100.0","12.3",1640909279999,"1230.0",10,"6.0","600.0","0"]]`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", WithRetries(2, time.Millisecond), WithRateLimit(0), WithUserAgent("bnc/test")), &calls
}

func TestKlines(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "SUSHIUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		assert.Equal(t, "1640909220000", r.URL.Query().Get("startTime"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.Header.Get("X-MBX-APIKEY"))
		assert.Equal(t, "bnc/test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(sushiKline))
	})

	klines, err := c.Klines(context.Background(), "SUSHIUSDT", "1m", 1640909220000, 1)
	require.NoError(t, err)
	require.Len(t, klines, 1)

	k := klines[0]
	assert.Equal(t, int64(1640909220000), k.OpenTime)
	assert.Equal(t, int64(1640909279999), k.CloseTime)
	assert.True(t, k.Close.Equal(decimal.NewFromInt(100)))
	assert.True(t, k.High.Equal(decimal.NewFromInt(101)))
	assert.True(t, k.Volume.Equal(decimal.RequireFromString("12.3")))
}

func TestKlines_BadPayload(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1,"2"]]`))
	})
	_, err := c.Klines(context.Background(), "BTCUSD", "1m", 0, 1)
	assert.ErrorContains(t, err, "unmarshal response")
}

func TestHistoricalClose_FallsThroughQuotes(t *testing.T) {
	var mu sync.Mutex
	var symbols []string
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		mu.Lock()
		symbols = append(symbols, symbol)
		mu.Unlock()
		switch symbol {
		case "SUSHIUSD":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
		case "SUSHIUSDT":
			_, _ = w.Write([]byte(sushiKline))
		default:
			t.Errorf("unexpected symbol %s", symbol)
		}
	})

	// 00:07:03.819 aligns to the 00:07:00 candle.
	q, err := c.HistoricalClose(context.Background(), "SUSHI", 1640909223819, valuation.DefaultQuotes)
	require.NoError(t, err)
	assert.Equal(t, "SUSHIUSDT", q.Symbol)
	assert.Equal(t, "USDT", q.QuoteAsset)
	assert.True(t, q.Close.Equal(decimal.NewFromInt(100)))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"SUSHIUSD", "SUSHIUSDT"}, symbols)
}

func TestHistoricalClose_NotFound(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.HistoricalClose(context.Background(), "NEW", 0, valuation.DefaultQuotes)
	assert.ErrorIs(t, err, valuation.ErrNotFound)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHistoricalClose_Memoized(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "SUSHIUSD" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(sushiKline))
	})

	ctx := context.Background()
	for _, ms := range []int64{1640909220000, 1640909223819, 1640909279999} {
		q, err := c.HistoricalClose(ctx, "SUSHI", ms, []string{"BUSD", "USD"})
		require.NoError(t, err)
		assert.Equal(t, "SUSHIUSD", q.Symbol)
	}
	assert.Equal(t, int32(2), calls.Load())

	_, err := c.HistoricalClose(ctx, "SUSHI", 1640909280000, []string{"USD"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHistoricalClose_RetriesServerErrors(t *testing.T) {
	var n atomic.Int32
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sushiKline))
	})

	q, err := c.HistoricalClose(context.Background(), "SUSHI", 1640909223819, []string{"USDT"})
	require.NoError(t, err)
	assert.True(t, q.Close.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHistoricalClose_GivesUp(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.HistoricalClose(context.Background(), "SUSHI", 0, []string{"USD"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "max retries exceeded")
	assert.False(t, errors.Is(err, valuation.ErrNotFound))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHistoricalClose_ContextCanceled(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.retryBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.HistoricalClose(ctx, "SUSHI", 0, []string{"USD"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
