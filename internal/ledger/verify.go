package ledger

import "fmt"

// Violations checks the end-of-run invariants of a classification run.
// others is the Distribution/Others breakdown map.
func (s *Stats) Violations(others *Balances) []Violation {
	var v []Violation

	check := func(name string, ok bool, format string, args ...any) {
		if !ok {
			v = append(v, Violation{Name: name, Detail: fmt.Sprintf(format, args...)})
		}
	}
	zero := func(name string, n uint64) {
		check(name, n == 0, "%d", n)
	}
	sum := func(name string, total uint64, parts ...uint64) {
		var n uint64
		for _, p := range parts {
			n += p
		}
		check(name, total == n, "category count %d != %d", total, n)
	}

	d := s.Distribution
	sum("distribution_count", d.Count, d.Referral.Count, d.Staking.Count, d.Others.Count, d.Unknown)
	zero("distribution_unknown_operations", d.Unknown)

	sum("quick_count", s.Quick.Count, s.Quick.Buy.Count, s.Quick.Sell.Count, s.Quick.Unknown)
	zero("quick_unknown_operations", s.Quick.Unknown)

	sum("spot_count", s.Spot.Count, s.Spot.Buy.Count, s.Spot.Sell.Count, s.Spot.Unknown)
	zero("spot_unknown_operations", s.Spot.Unknown)

	sum("withdrawal_count", s.Withdrawal.Count, s.Withdrawal.Crypto.Count, s.Withdrawal.Unknown)
	zero("withdrawal_unknown_operations", s.Withdrawal.Unknown)

	sum("deposit_count", s.Deposit.Count, s.Deposit.Crypto.Count, s.Deposit.USD.Count, s.Deposit.Unknown)
	zero("deposit_unknown_operations", s.Deposit.Unknown)

	// Crypto deposit fees are not applied to any balance yet.
	zero("crypto_deposit_fees", s.Deposit.Crypto.FeeCount)

	sum("total_count", s.Total, d.Count, s.Quick.Count, s.Spot.Count, s.Withdrawal.Count, s.Deposit.Count, s.Unprocessed)
	zero("unprocessed_categories", s.Unprocessed)

	if others != nil {
		total := others.TotalValueUSD()
		check("distribution_others_value", total.Equal(d.Others.Value),
			"per-asset sum %s != %s", total, d.Others.Value)
	}
	return v
}
