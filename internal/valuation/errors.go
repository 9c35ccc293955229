package valuation

import (
	"fmt"
	"strings"

	"github.com/coinledger/bnc/internal/timestamp"
)

// Kind classifies a valuation Error.
type Kind int

const (
	// KindMissingAssetValue means the leg has no realized amount to price.
	KindMissingAssetValue Kind = iota + 1
	// KindNoPriceData means no candle exists for any preferred quote asset.
	KindNoPriceData
	// KindLookupFailed means the price source itself failed.
	KindLookupFailed
)

func (k Kind) String() string {
	switch k {
	case KindMissingAssetValue:
		return "missing asset value"
	case KindNoPriceData:
		return "no price data"
	case KindLookupFailed:
		return "price lookup failed"
	default:
		return "unknown"
	}
}

// Error reports a USD value that could not be resolved.
type Error struct {
	Kind   Kind
	Line   int
	Asset  string
	TimeMs int64
	Quotes []string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	fmt.Fprintf(&b, "%s: %s at %s", e.Kind, e.Asset, timestamp.FormatMs(e.TimeMs))
	if e.Kind == KindNoPriceData {
		fmt.Fprintf(&b, " for %s", strings.Join(e.Quotes, ","))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }
