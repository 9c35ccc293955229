// Package consolidate merges runs of same-operation Distribution records.
package consolidate

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/coinledger/bnc/internal/ledger"
	"github.com/coinledger/bnc/internal/model"
)

type state int

const (
	lookingForDistribution state = iota
	accumulatingReferral
	accumulatingStaking
	accumulatingOthers
)

var accumulating = map[string]state{
	model.OpReferralCommission: accumulatingReferral,
	model.OpStakingRewards:     accumulatingStaking,
	model.OpOthers:             accumulatingOthers,
}

func (s state) operation() string {
	switch s {
	case accumulatingReferral:
		return model.OpReferralCommission
	case accumulatingStaking:
		return model.OpStakingRewards
	case accumulatingOthers:
		return model.OpOthers
	default:
		return ""
	}
}

// Kind classifies a consolidation Error.
type Kind int

const (
	// KindUnknownOperation is a Distribution record with an operation that
	// has no accumulating state.
	KindUnknownOperation Kind = iota + 1
	// KindAssetMismatch is a merge of records about different assets.
	KindAssetMismatch
	// KindIncompleteRecord is a merge of a record without amount or value.
	KindIncompleteRecord
)

// Error reports a record sequence that cannot be consolidated.
type Error struct {
	Kind      Kind
	Index     int // position in the input sequence
	Asset     string
	Other     string // the accumulated asset, for KindAssetMismatch
	Operation string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownOperation:
		return fmt.Sprintf("record %d: %s: unknown Distribution operation %q", e.Index, e.Asset, e.Operation)
	case KindAssetMismatch:
		return fmt.Sprintf("record %d: cannot merge %s into %s", e.Index, e.Asset, e.Other)
	default:
		return fmt.Sprintf("record %d: %s %s has no amount or USD value to merge", e.Index, e.Asset, e.Operation)
	}
}

// Records consolidates one asset's records in arrival order. Consecutive
// Distribution records with the same operation collapse into the first of
// the run, summing realized amounts and USD values. recs is not modified.
func Records(recs []model.Record) ([]model.Record, error) {
	out := make([]model.Record, 0, len(recs))
	st := lookingForDistribution
	last := -1

	for i, rec := range recs {
		if st != lookingForDistribution {
			if rec.Is(model.CategoryDistribution, st.operation()) {
				if err := merge(&out[last], rec, i); err != nil {
					return nil, err
				}
				continue
			}
			st = lookingForDistribution
			out = append(out, rec)
			last = len(out) - 1
			continue
		}

		out = append(out, rec)
		last = len(out) - 1
		if rec.Category != model.CategoryDistribution {
			continue
		}
		next, ok := accumulating[rec.Operation]
		if !ok {
			return nil, &Error{Kind: KindUnknownOperation, Index: i, Asset: rec.EffectiveAsset(), Operation: rec.Operation}
		}
		st = next
	}
	return out, nil
}

// merge adds rec's effective amount and value into dst.
func merge(dst *model.Record, rec model.Record, index int) error {
	if dst.EffectiveAsset() != rec.EffectiveAsset() {
		return &Error{Kind: KindAssetMismatch, Index: index, Asset: rec.EffectiveAsset(), Other: dst.EffectiveAsset()}
	}
	to, from := dst.Effective(), rec.Effective()
	if !to.Amount.Valid || !to.USD.Valid || !from.Amount.Valid || !from.USD.Valid {
		return &Error{Kind: KindIncompleteRecord, Index: index, Asset: rec.EffectiveAsset(), Operation: rec.Operation}
	}

	amount := to.Amount.Decimal.Add(from.Amount.Decimal)
	value := to.USD.Decimal.Add(from.USD.Decimal)
	to.Amount = decimal.NewNullDecimal(amount)
	to.USD = decimal.NewNullDecimal(value)
	return nil
}

// Summary is the record count of one asset before and after consolidation.
type Summary struct {
	Asset string
	Pre   int
	Post  int
}

// Balances consolidates every entry of b, storing each result in
// Entry.Consolidated, and returns all consolidated records sorted with
// model.Compare along with per-asset counts in asset order.
func Balances(b *ledger.Balances) ([]model.Record, []Summary, error) {
	var all []model.Record
	var sums []Summary
	for _, e := range b.Entries() {
		out, err := Records(e.Records)
		if err != nil {
			return nil, nil, fmt.Errorf("consolidating %s: %w", e.Asset, err)
		}
		e.Consolidated = out
		all = append(all, out...)
		sums = append(sums, Summary{Asset: e.Asset, Pre: len(e.Records), Post: len(out)})
	}
	slices.SortStableFunc(all, model.Compare)
	return all, sums, nil
}
