package consolidate

import (
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinledger/bnc/internal/distcsv"
	"github.com/coinledger/bnc/internal/ledger"
	"github.com/coinledger/bnc/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amt(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func dist(op, asset, amount, usd string, timeMs int64) model.Record {
	return model.Record{
		TimeMs:    timeMs,
		Category:  model.CategoryDistribution,
		Operation: op,
		Primary:   model.Leg{Asset: asset, Amount: amt(amount), USD: amt(usd)},
	}
}

func withdrawal(asset, amount, usd string, timeMs int64) model.Record {
	return model.Record{
		TimeMs:    timeMs,
		Category:  model.CategoryWithdrawal,
		Operation: model.OpCryptoWithdrawal,
		Primary:   model.Leg{Asset: asset, Amount: amt(amount), USD: amt(usd)},
	}
}

func TestRecords_MergesRun(t *testing.T) {
	in := []model.Record{
		dist(model.OpStakingRewards, "X", "10", "100", 1),
		dist(model.OpStakingRewards, "X", "5", "60", 2),
		dist(model.OpStakingRewards, "X", "2", "25", 3),
	}
	out, err := Records(in)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.True(t, out[0].Primary.Amount.Decimal.Equal(dec("17")))
	assert.True(t, out[0].Primary.USD.Decimal.Equal(dec("185")))
	assert.Equal(t, int64(1), out[0].TimeMs)

	// Input untouched.
	assert.True(t, in[0].Primary.Amount.Decimal.Equal(dec("10")))
	assert.True(t, in[0].Primary.USD.Decimal.Equal(dec("100")))
}

func TestRecords_DisjointRunsUnchanged(t *testing.T) {
	in := []model.Record{
		dist(model.OpStakingRewards, "X", "1", "1", 1),
		withdrawal("X", "1", "1", 2),
		dist(model.OpReferralCommission, "X", "2", "2", 3),
		dist(model.OpOthers, "X", "3", "3", 4),
		dist(model.OpStakingRewards, "X", "4", "4", 5),
		withdrawal("X", "1", "1", 6),
	}
	out, err := Records(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRecords_Transitions(t *testing.T) {
	in := []model.Record{
		withdrawal("X", "1", "1", 1),
		dist(model.OpReferralCommission, "X", "1", "1", 2),
		dist(model.OpReferralCommission, "X", "1", "1", 3),
		dist(model.OpOthers, "X", "5", "5", 4), // pushed, back to looking
		dist(model.OpOthers, "X", "5", "5", 5), // starts a new run
		dist(model.OpOthers, "X", "5", "5", 6),
		withdrawal("X", "1", "1", 7),
	}
	out, err := Records(in)
	require.NoError(t, err)

	var times []int64
	for _, r := range out {
		times = append(times, r.TimeMs)
	}
	assert.Equal(t, []int64{1, 2, 4, 5, 7}, times)
	assert.True(t, out[1].Primary.Amount.Decimal.Equal(dec("2")))
	assert.True(t, out[2].Primary.Amount.Decimal.Equal(dec("5")))
	assert.True(t, out[3].Primary.Amount.Decimal.Equal(dec("10")))
}

func TestRecords_Empty(t *testing.T) {
	out, err := Records(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRecords_UnknownOperation(t *testing.T) {
	in := []model.Record{
		withdrawal("X", "1", "1", 1),
		dist("Airdrop", "X", "1", "1", 2),
	}
	_, err := Records(in)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindUnknownOperation, ce.Kind)
	assert.Equal(t, 1, ce.Index)
	assert.Equal(t, "Airdrop", ce.Operation)
	assert.Contains(t, err.Error(), `unknown Distribution operation "Airdrop"`)
}

func TestRecords_UnknownOperationWhileAccumulatingEndsRun(t *testing.T) {
	in := []model.Record{
		dist(model.OpStakingRewards, "X", "1", "1", 1),
		dist("Airdrop", "X", "1", "1", 2),
	}
	out, err := Records(in)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestRecords_AssetMismatch(t *testing.T) {
	in := []model.Record{
		dist(model.OpStakingRewards, "X", "1", "1", 1),
		dist(model.OpStakingRewards, "Y", "1", "1", 2),
	}
	_, err := Records(in)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindAssetMismatch, ce.Kind)
	assert.Equal(t, "Y", ce.Asset)
	assert.Equal(t, "X", ce.Other)
}

func TestRecords_IncompleteMerge(t *testing.T) {
	second := dist(model.OpStakingRewards, "X", "1", "1", 2)
	second.Primary.USD = decimal.NullDecimal{}

	_, err := Records([]model.Record{dist(model.OpStakingRewards, "X", "1", "1", 1), second})

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindIncompleteRecord, ce.Kind)
}

func TestBalances_Fixture(t *testing.T) {
	f, err := os.Open("../../testdata/distribution_filled.csv")
	require.NoError(t, err)
	defer f.Close()

	recs, err := distcsv.ReadRecords(f, "distribution_filled.csv")
	require.NoError(t, err)

	b := ledger.NewBalances()
	for i, rec := range recs {
		require.NoError(t, b.AddRecord(rec, i+2))
	}

	all, sums, err := Balances(b)
	require.NoError(t, err)
	require.Len(t, all, 9)

	assert.Equal(t, []Summary{
		{Asset: "ADA", Pre: 2, Post: 2},
		{Asset: "BTC", Pre: 3, Post: 3},
		{Asset: "ETH", Pre: 4, Post: 2},
		{Asset: "SUSHI", Pre: 1, Post: 1},
		{Asset: "USD", Pre: 1, Post: 1},
	}, sums)

	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, model.Compare(all[i-1], all[i]), 0)
	}

	eth, _ := b.Get("ETH")
	require.Len(t, eth.Consolidated, 2)
	staking := eth.Consolidated[0]
	assert.Equal(t, model.OpStakingRewards, staking.Operation)
	assert.True(t, staking.Primary.Amount.Decimal.Equal(dec("0.17")))
	assert.True(t, staking.Primary.USD.Decimal.Equal(dec("185")))
	assert.Equal(t, uint64(102), staking.TransactionID)

	raw, consolidated := b.RecordCount()
	assert.Equal(t, 11, raw)
	assert.Equal(t, 9, consolidated)
}

func TestBalances_ErrorNamesAsset(t *testing.T) {
	b := ledger.NewBalances()
	require.NoError(t, b.AddRecord(dist("Airdrop", "DOGE", "1", "1", 1), 2))

	_, _, err := Balances(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consolidating DOGE")

	var ce *Error
	assert.True(t, errors.As(err, &ce))
}
