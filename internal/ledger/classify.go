package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/coinledger/bnc/internal/logger"
	"github.com/coinledger/bnc/internal/model"
)

// Classifier applies records to per-asset balances and run statistics.
// Records must have every amount and USD value they use filled in.
type Classifier struct {
	Balances *Balances
	// Others holds the per-asset breakdown of Distribution/Others rewards.
	Others *Balances
	Stats  Stats
}

// NewClassifier returns an empty Classifier.
func NewClassifier() *Classifier {
	return &Classifier{Balances: NewBalances(), Others: NewBalances()}
}

// Classify applies one record. On error nothing has been changed.
// Unknown operations and categories are counted and logged, not returned;
// Verify reports them.
func (c *Classifier) Classify(ctx context.Context, rec model.Record, line int) error {
	if err := validate(&rec, line); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	asset := rec.EffectiveAsset()
	eff := rec.Effective()
	amount, value := eff.Amount.Decimal, eff.USD.Decimal

	c.Stats.Total++
	entry, _ := c.Balances.Ensure(asset)
	for _, role := range []model.Role{model.RoleQuote, model.RoleFee} {
		leg := rec.Leg(role)
		if leg.Asset == "" {
			continue
		}
		if _, created := c.Balances.Ensure(leg.Asset); created {
			log.Warn().
				Int("line", line).
				Str("asset", leg.Asset).
				Str("role", role.String()).
				Msg("adding missing asset")
		}
	}
	entry.TxCount++

	unknown := func(counter *uint64) {
		*counter++
		log.Warn().
			Int("line", line).
			Str("asset", asset).
			Str("category", string(rec.Category)).
			Str("operation", rec.Operation).
			Msg("unknown operation")
	}

	switch rec.Category {
	case model.CategoryDistribution:
		s := &c.Stats.Distribution
		s.Count++
		c.Balances.addQuantity(asset, amount)
		if rec.Fee.Asset != "" {
			c.Balances.subQuantity(rec.Fee.Asset, rec.Fee.Amount.Decimal)
		}

		switch rec.Operation {
		case model.OpReferralCommission:
			s.Referral.add(value)
		case model.OpStakingRewards:
			s.Staking.add(value)
		case model.OpOthers:
			s.Others.add(value)
			c.Others.AddOrUpdate(asset, amount, value)
		default:
			unknown(&s.Unknown)
		}

	case model.CategoryQuickBuy, model.CategoryQuickSell:
		c.trade(&c.Stats.Quick, &rec, value, unknown)

	case model.CategorySpotTrading:
		c.trade(&c.Stats.Spot, &rec, value, unknown)

	case model.CategoryWithdrawal:
		s := &c.Stats.Withdrawal
		s.Count++
		switch rec.Operation {
		case model.OpCryptoWithdrawal:
			c.Balances.subQuantity(asset, amount)
			if rec.Fee.Asset != "" {
				c.Balances.subQuantity(rec.Fee.Asset, rec.Fee.Amount.Decimal)
				s.Crypto.addFee(rec.Fee.USD.Decimal)
			}
			s.Crypto.add(value)
		default:
			unknown(&s.Unknown)
		}

	case model.CategoryDeposit:
		s := &c.Stats.Deposit
		s.Count++
		switch rec.Operation {
		case model.OpCryptoDeposit:
			c.Balances.addQuantity(asset, amount)
			if rec.Fee.Asset != "" {
				log.Warn().Int("line", line).Str("asset", rec.Fee.Asset).Msg("crypto deposit fee not applied")
				s.Crypto.FeeCount++
			}
			s.Crypto.add(value)
		case model.OpUSDDeposit:
			c.Balances.addQuantity(asset, amount)
			// Deducted before the deposit arrives, so only tracked.
			if rec.Fee.Asset != "" {
				s.USD.addFee(rec.Fee.USD.Decimal)
			}
			s.USD.add(value)
		default:
			unknown(&s.Unknown)
		}

	default:
		c.Stats.Unprocessed++
		log.Warn().
			Int("line", line).
			Str("asset", asset).
			Str("category", string(rec.Category)).
			Msg("unknown category")
	}
	return nil
}

func (c *Classifier) trade(s *TradeStats, rec *model.Record, value decimal.Decimal, unknown func(*uint64)) {
	s.Count++
	switch rec.Operation {
	case model.OpBuy:
		c.Balances.addQuantity(rec.Base.Asset, rec.Base.Amount.Decimal)
		c.Balances.subQuantity(rec.Quote.Asset, rec.Quote.Amount.Decimal)
		s.Buy.add(value)
		s.Buy.addFee(rec.Fee.USD.Decimal)
	case model.OpSell:
		c.Balances.subQuantity(rec.Base.Asset, rec.Base.Amount.Decimal)
		c.Balances.addQuantity(rec.Quote.Asset, rec.Quote.Amount.Decimal)
		s.Sell.add(value)
		s.Sell.addFee(rec.Fee.USD.Decimal)
	default:
		unknown(&s.Unknown)
		return
	}
	c.Balances.subQuantity(rec.Fee.Asset, rec.Fee.Amount.Decimal)
}

// Verify checks the end-of-run invariants and returns an *InvariantError
// listing every violation, or nil.
func (c *Classifier) Verify() error {
	if v := c.Stats.Violations(c.Others); len(v) > 0 {
		return &InvariantError{Violations: v}
	}
	return nil
}

// validate checks that every field Classify reads is present.
func validate(rec *model.Record, line int) error {
	incomplete := func(role model.Role, field string) error {
		return &Error{
			Kind:      KindIncompleteRecord,
			Line:      line,
			TimeMs:    rec.TimeMs,
			Asset:     rec.Leg(role).Asset,
			Category:  rec.Category,
			Operation: rec.Operation,
			Role:      role,
			Field:     field,
		}
	}
	needAmount := func(role model.Role) error {
		if !rec.Leg(role).Amount.Valid {
			return incomplete(role, "amount")
		}
		return nil
	}
	needUSD := func(role model.Role) error {
		if !rec.Leg(role).USD.Valid {
			return incomplete(role, "usd")
		}
		return nil
	}
	hasFee := rec.Fee.Asset != ""

	if !rec.HasEffectiveAsset() {
		return incomplete(rec.EffectiveRole(), "asset")
	}
	eff := rec.EffectiveRole()
	if err := needAmount(eff); err != nil {
		return err
	}
	if err := needUSD(eff); err != nil {
		return err
	}

	switch rec.Category {
	case model.CategoryDistribution:
		if hasFee {
			return needAmount(model.RoleFee)
		}

	case model.CategoryQuickBuy, model.CategoryQuickSell, model.CategorySpotTrading:
		if rec.Operation != model.OpBuy && rec.Operation != model.OpSell {
			return nil
		}
		if !hasFee || !rec.Fee.Amount.Valid || !rec.Fee.USD.Valid {
			return &Error{
				Kind:      KindMissingFee,
				Line:      line,
				TimeMs:    rec.TimeMs,
				Asset:     rec.EffectiveAsset(),
				Category:  rec.Category,
				Operation: rec.Operation,
				Role:      model.RoleFee,
			}
		}
		if rec.Base.Asset == "" {
			return incomplete(model.RoleBase, "asset")
		}
		if err := needAmount(model.RoleBase); err != nil {
			return err
		}
		if rec.Quote.Asset == "" {
			return incomplete(model.RoleQuote, "asset")
		}
		return needAmount(model.RoleQuote)

	case model.CategoryWithdrawal:
		if rec.Operation == model.OpCryptoWithdrawal && hasFee {
			if err := needAmount(model.RoleFee); err != nil {
				return err
			}
			return needUSD(model.RoleFee)
		}

	case model.CategoryDeposit:
		if rec.Operation == model.OpUSDDeposit && hasFee {
			return needUSD(model.RoleFee)
		}
	}
	return nil
}
