// Package valuation resolves missing USD values of record legs from
// historical prices.
package valuation

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/coinledger/bnc/internal/logger"
	"github.com/coinledger/bnc/internal/model"
	"github.com/coinledger/bnc/internal/timestamp"
)

// DefaultQuotes is the quote asset preference used when none is configured.
var DefaultQuotes = []string{"USD", "USDT", "BUSD"}

// ErrNotFound is returned by a PriceSource that has no candle for any of the
// requested quote assets.
var ErrNotFound = errors.New("no price data")

// Quote is a historical close price of an asset against QuoteAsset.
type Quote struct {
	Symbol     string
	QuoteAsset string
	Close      decimal.Decimal
}

// PriceSource looks up the close price of asset at timeMs, trying quotes in
// order and returning the first match.
type PriceSource interface {
	HistoricalClose(ctx context.Context, asset string, timeMs int64, quotes []string) (Quote, error)
}

// Resolver fills in USD values. It is not safe for concurrent use.
type Resolver struct {
	source  PriceSource
	quotes  []string
	lookups int
}

// NewResolver returns a Resolver querying source with the given quote
// preference. A nil or empty quotes uses DefaultQuotes.
func NewResolver(source PriceSource, quotes []string) *Resolver {
	if len(quotes) == 0 {
		quotes = DefaultQuotes
	}
	return &Resolver{source: source, quotes: quotes}
}

// Lookups returns how many times the price source has been queried.
func (r *Resolver) Lookups() int { return r.lookups }

// Resolve returns the USD value of amount of asset at timeMs and stores it in
// *usd. USD is valued at its own quantity. An existing value is returned
// unchanged. Otherwise the price source is queried.
func (r *Resolver) Resolve(ctx context.Context, line int, timeMs int64, asset string, amount decimal.NullDecimal, usd *decimal.NullDecimal) (decimal.Decimal, error) {
	fail := func(kind Kind, err error) (decimal.Decimal, error) {
		return decimal.Zero, &Error{Kind: kind, Line: line, Asset: asset, TimeMs: timeMs, Quotes: r.quotes, Err: err}
	}

	if asset == model.USD {
		if !amount.Valid {
			return fail(KindMissingAssetValue, nil)
		}
		*usd = amount
		return amount.Decimal, nil
	}

	if usd.Valid {
		return usd.Decimal, nil
	}

	if !amount.Valid {
		return fail(KindMissingAssetValue, nil)
	}

	r.lookups++
	q, err := r.source.HistoricalClose(ctx, asset, timeMs, r.quotes)
	if errors.Is(err, ErrNotFound) {
		return fail(KindNoPriceData, nil)
	}
	if err != nil {
		return fail(KindLookupFailed, err)
	}

	value := q.Close.Mul(amount.Decimal)
	*usd = decimal.NewNullDecimal(value)

	log := logger.FromContext(ctx)
	log.Debug().
		Int("line", line).
		Str("symbol", q.Symbol).
		Str("time", timestamp.FormatMs(timeMs)).
		Str("value", value.String()).
		Msg("updated USD value")
	return value, nil
}

// ResolveRecord resolves every leg of rec that names an asset, in column
// order, writing the results into rec.
func (r *Resolver) ResolveRecord(ctx context.Context, rec *model.Record, line int) error {
	for _, role := range model.Roles {
		leg := rec.Leg(role)
		if leg.Asset == "" {
			continue
		}
		if _, err := r.Resolve(ctx, line, rec.TimeMs, leg.Asset, leg.Amount, &leg.USD); err != nil {
			return err
		}
	}
	return nil
}

// ValueAt returns the USD value of quantity of asset at timeMs without a
// record to write back into.
func (r *Resolver) ValueAt(ctx context.Context, asset string, quantity decimal.Decimal, timeMs int64) (decimal.Decimal, error) {
	var usd decimal.NullDecimal
	return r.Resolve(ctx, 0, timeMs, asset, decimal.NewNullDecimal(quantity), &usd)
}
