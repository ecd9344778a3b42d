package reward

import (
	"math/big"

	"github.com/warp-contracts/cashback-scanner/src/utils/eth"

	"github.com/shopspring/decimal"
)

// Number of fractional digits of computed rewards
const Precision = 6

type Reward struct {
	// Rounded to Precision digits, in native units
	Amount decimal.Decimal

	// Rule's base rate, before any boost
	Rate decimal.Decimal

	Boosted bool
	Clamped bool
}

// Computes rewards. Has no state besides the boost policy, so it's safe for concurrent use.
type Engine struct {
	boost *BoostPolicy
}

func NewEngine(boost *BoostPolicy) (self *Engine) {
	self = new(Engine)
	self.boost = boost
	if self.boost == nil {
		self.boost = &BoostPolicy{}
	}
	return
}

// Reward for a transaction of the given value in wei. Returns false when the transaction earns nothing.
func (self *Engine) Compute(valueWei *big.Int, rule *Rule, inputs *BoostInputs) (out Reward, ok bool) {
	if rule == nil || !rule.Active {
		return
	}

	value := eth.WeiToNative(valueWei)
	if rule.MinTransaction != nil && value.LessThan(*rule.MinTransaction) {
		return
	}

	amount := value.Mul(rule.BaseRate)

	if inputs == nil {
		inputs = &BoostInputs{}
	}
	if rule.BoostMultiplier != nil && self.boost.Applies(value, inputs) {
		amount = amount.Mul(*rule.BoostMultiplier)
		out.Boosted = true
	}

	if rule.MaxCashback != nil && amount.GreaterThan(*rule.MaxCashback) {
		amount = *rule.MaxCashback
		out.Clamped = true
	}

	out.Amount = amount.Round(Precision)
	out.Rate = rule.BaseRate
	return out, true
}
