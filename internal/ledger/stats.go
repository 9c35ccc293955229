package ledger

import "github.com/shopspring/decimal"

// Tally counts one operation and sums its USD values and fees.
type Tally struct {
	Count    uint64
	Value    decimal.Decimal
	FeeCount uint64
	Fee      decimal.Decimal
}

func (t *Tally) add(value decimal.Decimal) {
	t.Count++
	t.Value = t.Value.Add(value)
}

func (t *Tally) addFee(fee decimal.Decimal) {
	t.FeeCount++
	t.Fee = t.Fee.Add(fee)
}

// DistributionStats covers the Distribution category.
type DistributionStats struct {
	Count    uint64
	Referral Tally
	Staking  Tally
	Others   Tally
	Unknown  uint64
}

// TradeStats covers Quick Buy/Quick Sell together, or Spot Trading.
type TradeStats struct {
	Count   uint64
	Buy     Tally
	Sell    Tally
	Unknown uint64
}

// WithdrawalStats covers the Withdrawal category.
type WithdrawalStats struct {
	Count   uint64
	Crypto  Tally
	Unknown uint64
}

// DepositStats covers the Deposit category. Crypto.FeeCount is counted but
// its fees are never summed or subtracted; Verify rejects any nonzero count.
type DepositStats struct {
	Count   uint64
	Crypto  Tally
	USD     Tally
	Unknown uint64
}

// Stats accumulates counts and USD values over a classification run.
type Stats struct {
	Total        uint64
	Distribution DistributionStats
	Quick        TradeStats
	Spot         TradeStats
	Withdrawal   WithdrawalStats
	Deposit      DepositStats
	Unprocessed  uint64
}

// FeesUSD is the sum of every tracked fee value.
func (s *Stats) FeesUSD() decimal.Decimal {
	return decimal.Sum(
		s.Quick.Buy.Fee,
		s.Quick.Sell.Fee,
		s.Spot.Buy.Fee,
		s.Spot.Sell.Fee,
		s.Withdrawal.Crypto.Fee,
		s.Deposit.USD.Fee,
	)
}
