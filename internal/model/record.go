package model

import (
	"cmp"

	"github.com/shopspring/decimal"
)

// Category is the top-level transaction category of an exchange history row.
type Category string

const (
	CategoryDistribution Category = "Distribution"
	CategoryQuickBuy     Category = "Quick Buy"
	CategoryQuickSell    Category = "Quick Sell"
	CategorySpotTrading  Category = "Spot Trading"
	CategoryWithdrawal   Category = "Withdrawal"
	CategoryDeposit      Category = "Deposit"
)

// Operation strings, interpreted per category.
const (
	OpReferralCommission = "Referral Commission"
	OpStakingRewards     = "Staking Rewards"
	OpOthers             = "Others"
	OpBuy                = "Buy"
	OpSell               = "Sell"
	OpCryptoWithdrawal   = "Crypto Withdrawal"
	OpCryptoDeposit      = "Crypto Deposit"
	OpUSDDeposit         = "USD Deposit"
)

// USD is the asset symbol whose value is its own quantity.
const USD = "USD"

// Role names one of the four asset slots on a record.
type Role int

const (
	RolePrimary Role = iota
	RoleBase
	RoleQuote
	RoleFee
)

// Roles lists every role in column order.
var Roles = [...]Role{RolePrimary, RoleBase, RoleQuote, RoleFee}

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleBase:
		return "base"
	case RoleQuote:
		return "quote"
	case RoleFee:
		return "fee"
	default:
		return "unknown"
	}
}

// Leg is an asset symbol with its realized amount and USD value.
// Amount and USD are absent (Valid == false) when the export left them empty.
type Leg struct {
	Asset  string
	Amount decimal.NullDecimal
	USD    decimal.NullDecimal
}

// Record is one row of an exchange distribution/history export.
type Record struct {
	UserID           string
	TimeMs           int64 // milliseconds since the Unix epoch, UTC
	Category         Category
	Operation        string
	OrderID          string
	TransactionID    uint64
	Primary          Leg
	Base             Leg
	Quote            Leg
	Fee              Leg
	PaymentMethod    string
	WithdrawalMethod string
	AdditionalNote   string
}

// Leg returns a pointer to the leg for role.
func (r *Record) Leg(role Role) *Leg {
	switch role {
	case RolePrimary:
		return &r.Primary
	case RoleBase:
		return &r.Base
	case RoleQuote:
		return &r.Quote
	default:
		return &r.Fee
	}
}

// EffectiveRole is RolePrimary when the primary asset is set, else RoleBase.
func (r *Record) EffectiveRole() Role {
	if r.Primary.Asset != "" {
		return RolePrimary
	}
	return RoleBase
}

// EffectiveAsset is the asset the record is about.
func (r *Record) EffectiveAsset() string {
	return r.Leg(r.EffectiveRole()).Asset
}

// Effective returns the leg of the effective asset.
func (r *Record) Effective() *Leg {
	return r.Leg(r.EffectiveRole())
}

// HasEffectiveAsset reports whether exactly one of primary and base asset is set.
func (r *Record) HasEffectiveAsset() bool {
	return (r.Primary.Asset == "") != (r.Base.Asset == "")
}

// Is reports whether the record has the given category and operation.
func (r *Record) Is(category Category, operation string) bool {
	return r.Category == category && r.Operation == operation
}

// Compare orders records by user, time, category, operation and then every
// remaining column in file order. Absent amounts sort before present ones.
func Compare(a, b Record) int {
	if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TimeMs, b.TimeMs); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Category, b.Category); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Operation, b.Operation); c != 0 {
		return c
	}
	if c := cmp.Compare(a.OrderID, b.OrderID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TransactionID, b.TransactionID); c != 0 {
		return c
	}
	for _, role := range Roles {
		if c := compareLeg(*a.Leg(role), *b.Leg(role)); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.PaymentMethod, b.PaymentMethod); c != 0 {
		return c
	}
	if c := cmp.Compare(a.WithdrawalMethod, b.WithdrawalMethod); c != 0 {
		return c
	}
	return cmp.Compare(a.AdditionalNote, b.AdditionalNote)
}

func compareLeg(a, b Leg) int {
	if c := cmp.Compare(a.Asset, b.Asset); c != 0 {
		return c
	}
	if c := compareNull(a.Amount, b.Amount); c != 0 {
		return c
	}
	return compareNull(a.USD, b.USD)
}

func compareNull(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	default:
		return a.Decimal.Cmp(b.Decimal)
	}
}
