package model

import (
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestEffectiveAsset(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		base    string
		want    string
		role    Role
		valid   bool
	}{
		{"primary only", "SUSHI", "", "SUSHI", RolePrimary, true},
		{"base only", "", "BTC", "BTC", RoleBase, true},
		{"neither", "", "", "", RoleBase, false},
		{"both", "ETH", "BTC", "ETH", RolePrimary, false},
	}
	for _, tt := range tests {
		rec := Record{Primary: Leg{Asset: tt.primary}, Base: Leg{Asset: tt.base}}
		assert.Equal(t, tt.want, rec.EffectiveAsset(), tt.name)
		assert.Equal(t, tt.role, rec.EffectiveRole(), tt.name)
		assert.Equal(t, tt.valid, rec.HasEffectiveAsset(), tt.name)
	}
}

func TestLegPointsIntoRecord(t *testing.T) {
	rec := Record{Fee: Leg{Asset: "BNB"}}
	rec.Leg(RoleFee).USD = amt("1.5")

	require.True(t, rec.Fee.USD.Valid)
	assert.True(t, rec.Fee.USD.Decimal.Equal(decimal.RequireFromString("1.5")))
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "primary", RolePrimary.String())
	assert.Equal(t, "base", RoleBase.String())
	assert.Equal(t, "quote", RoleQuote.String())
	assert.Equal(t, "fee", RoleFee.String())
	assert.Equal(t, "unknown", Role(9).String())
}

func TestIs(t *testing.T) {
	rec := Record{Category: CategoryDistribution, Operation: OpStakingRewards}
	assert.True(t, rec.Is(CategoryDistribution, OpStakingRewards))
	assert.False(t, rec.Is(CategoryDistribution, OpOthers))
	assert.False(t, rec.Is(CategoryDeposit, OpStakingRewards))
}

func TestCompare(t *testing.T) {
	a := Record{UserID: "1", TimeMs: 10, Category: CategoryDistribution, Primary: Leg{Asset: "BTC", Amount: amt("1")}}
	b := Record{UserID: "1", TimeMs: 10, Category: CategoryDistribution, Primary: Leg{Asset: "BTC", Amount: amt("2")}}
	c := Record{UserID: "1", TimeMs: 5, Category: CategoryWithdrawal}
	d := Record{UserID: "0", TimeMs: 99}
	e := Record{UserID: "1", TimeMs: 10, Category: CategoryDistribution, Primary: Leg{Asset: "BTC"}}

	recs := []Record{a, b, c, d, e}
	slices.SortStableFunc(recs, Compare)

	assert.Equal(t, []Record{d, c, e, a, b}, recs)
	assert.Zero(t, Compare(a, a))
}
