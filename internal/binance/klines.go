package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinledger/bnc/internal/valuation"
)

// Kline is one candle.
type Kline struct {
	OpenTime  int64
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime int64
}

// UnmarshalJSON decodes the positional array form the API returns.
func (k *Kline) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 7 {
		return fmt.Errorf("kline has %d fields, want at least 7", len(raw))
	}
	if err := json.Unmarshal(raw[0], &k.OpenTime); err != nil {
		return fmt.Errorf("open time: %w", err)
	}
	for i, dst := range []*decimal.Decimal{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume} {
		if err := dst.UnmarshalJSON(raw[i+1]); err != nil {
			return fmt.Errorf("field %d: %w", i+1, err)
		}
	}
	if err := json.Unmarshal(raw[6], &k.CloseTime); err != nil {
		return fmt.Errorf("close time: %w", err)
	}
	return nil
}

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// ValidInterval reports whether interval is a supported kline interval.
func ValidInterval(interval string) bool {
	_, ok := intervals[interval]
	return ok
}

// alignMs floors timeMs to the start of its interval.
func alignMs(timeMs int64, interval string) int64 {
	d, ok := intervals[interval]
	if !ok {
		return timeMs
	}
	step := d.Milliseconds()
	aligned := timeMs - timeMs%step
	if timeMs < 0 && timeMs%step != 0 {
		aligned -= step
	}
	return aligned
}

// Klines returns up to limit candles of symbol starting at startTime.
func (c *Client) Klines(ctx context.Context, symbol, interval string, startTime int64, limit int) ([]Kline, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("startTime", strconv.FormatInt(startTime, 10))
	query.Set("limit", strconv.Itoa(limit))

	var klines []Kline
	if err := c.get(ctx, "/api/v3/klines", query, &klines); err != nil {
		return nil, fmt.Errorf("klines %s: %w", symbol, err)
	}
	return klines, nil
}

type cachedKline struct {
	kline Kline
	found bool
}

// kline returns the candle of symbol containing timeMs. found is false when
// the symbol does not exist (HTTP 400, e.g. code -1121) or has no candle at
// that time. Both outcomes are memoized.
func (c *Client) kline(ctx context.Context, symbol string, timeMs int64) (Kline, bool, error) {
	start := alignMs(timeMs, c.interval)
	key := symbol + "/" + c.interval + "/" + strconv.FormatInt(start, 10)
	if v, ok := c.cache.Get(key); ok {
		ck := v.(cachedKline)
		return ck.kline, ck.found, nil
	}

	klines, err := c.Klines(ctx, symbol, c.interval, start, 1)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
		c.logger.Debug().Str("symbol", symbol).Int("code", apiErr.Code).Str("msg", apiErr.Message).Msg("no market")
		err, klines = nil, nil
	}
	if err != nil {
		return Kline{}, false, err
	}

	ck := cachedKline{found: len(klines) > 0}
	if ck.found {
		ck.kline = klines[0]
	}
	c.cache.SetDefault(key, ck)
	return ck.kline, ck.found, nil
}

// HistoricalClose returns the close price of asset at timeMs against the
// first quote asset in quotes that has a market with a candle at that time.
// It returns valuation.ErrNotFound if none does.
func (c *Client) HistoricalClose(ctx context.Context, asset string, timeMs int64, quotes []string) (valuation.Quote, error) {
	for _, quote := range quotes {
		symbol := asset + quote
		k, found, err := c.kline(ctx, symbol, timeMs)
		if err != nil {
			return valuation.Quote{}, err
		}
		if found {
			return valuation.Quote{Symbol: symbol, QuoteAsset: quote, Close: k.Close}, nil
		}
	}
	return valuation.Quote{}, valuation.ErrNotFound
}

var _ valuation.PriceSource = (*Client)(nil)
