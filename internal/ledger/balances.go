// Package ledger classifies exchange records into per-asset balances and
// run statistics.
package ledger

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/coinledger/bnc/internal/model"
)

// Entry is the running state of one asset.
type Entry struct {
	Asset    string
	Quantity decimal.Decimal
	ValueUSD decimal.Decimal
	TxCount  uint64

	// Records holds copies of the records about this asset in arrival order.
	Records []model.Record
	// Consolidated is filled only by the consolidation workflow.
	Consolidated []model.Record
}

// Balances maps asset symbols to entries and iterates in symbol order.
// Entries are created on first reference and never removed.
type Balances struct {
	entries map[string]*Entry
}

// NewBalances returns an empty Balances.
func NewBalances() *Balances {
	return &Balances{entries: make(map[string]*Entry)}
}

// Len returns the number of assets.
func (b *Balances) Len() int { return len(b.entries) }

// Get returns the entry for asset.
func (b *Balances) Get(asset string) (*Entry, bool) {
	e, ok := b.entries[asset]
	return e, ok
}

// Ensure returns the entry for asset, creating it if needed. created reports
// whether it was new.
func (b *Balances) Ensure(asset string) (e *Entry, created bool) {
	if e, ok := b.entries[asset]; ok {
		return e, false
	}
	e = &Entry{Asset: asset}
	b.entries[asset] = e
	return e, true
}

// Assets returns every asset symbol in sorted order.
func (b *Balances) Assets() []string {
	return slices.Sorted(maps.Keys(b.entries))
}

// Entries returns every entry in asset order.
func (b *Balances) Entries() []*Entry {
	out := make([]*Entry, 0, len(b.entries))
	for _, asset := range b.Assets() {
		out = append(out, b.entries[asset])
	}
	return out
}

// AddRecord appends a copy of rec to its effective asset's record sequence.
func (b *Balances) AddRecord(rec model.Record, line int) error {
	if !rec.HasEffectiveAsset() {
		return &Error{
			Kind:      KindIncompleteRecord,
			Line:      line,
			TimeMs:    rec.TimeMs,
			Category:  rec.Category,
			Operation: rec.Operation,
			Role:      rec.EffectiveRole(),
			Field:     "asset",
		}
	}
	e, _ := b.Ensure(rec.EffectiveAsset())
	e.Records = append(e.Records, rec)
	return nil
}

// AddOrUpdate adds quantity and value to asset and counts one transaction.
func (b *Balances) AddOrUpdate(asset string, quantity, valueUSD decimal.Decimal) {
	e, _ := b.Ensure(asset)
	e.Quantity = e.Quantity.Add(quantity)
	e.ValueUSD = e.ValueUSD.Add(valueUSD)
	e.TxCount++
}

func (b *Balances) addQuantity(asset string, d decimal.Decimal) {
	e, _ := b.Ensure(asset)
	e.Quantity = e.Quantity.Add(d)
}

func (b *Balances) subQuantity(asset string, d decimal.Decimal) {
	b.addQuantity(asset, d.Neg())
}

// TotalValueUSD sums ValueUSD over every entry.
func (b *Balances) TotalValueUSD() decimal.Decimal {
	total := decimal.Zero
	for _, e := range b.entries {
		total = total.Add(e.ValueUSD)
	}
	return total
}

// RecordCount sums the raw and consolidated record counts over every entry.
func (b *Balances) RecordCount() (raw, consolidated int) {
	for _, e := range b.entries {
		raw += len(e.Records)
		consolidated += len(e.Consolidated)
	}
	return raw, consolidated
}
