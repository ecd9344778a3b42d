package classifier

import (
	"github.com/warp-contracts/cashback-scanner/src/reward"
	"github.com/warp-contracts/cashback-scanner/src/utils/eth"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
)

// Rules the classifier looks transactions up in
type RuleLookup interface {
	Lookup(address common.Address) (*reward.Rule, bool)
}

type Classification struct {
	// Transaction targets a registered contract
	Qualifying bool

	Rule *reward.Rule

	// Address the rule was matched against
	Target common.Address

	// Best-effort tag, not used for any decision
	SwapType model.SwapType
}

type Classifier struct {
	rules RuleLookup
}

func NewClassifier(rules RuleLookup) (self *Classifier) {
	self = new(Classifier)
	self.rules = rules
	return
}

// Matches the contract that was actually executed, which isn't the nominal recipient for relayed calls.
// The nominal recipient's code always runs, so a registered recipient qualifies even when
// the effective target points at another contract (e.g. the only token emitting logs).
// Reverted transactions never qualify.
func (self *Classifier) Classify(tx *eth.Transaction) (out Classification) {
	out.Target = Target(tx)
	out.SwapType = SwapType(tx)

	if !tx.Succeeded() || out.Target == (common.Address{}) {
		return
	}

	out.Rule, out.Qualifying = self.rules.Lookup(out.Target)
	if out.Qualifying || tx.To == nil || *tx.To == out.Target {
		return
	}

	out.Rule, out.Qualifying = self.rules.Lookup(*tx.To)
	if out.Qualifying {
		out.Target = *tx.To
	}
	return
}

func Target(tx *eth.Transaction) common.Address {
	if tx.EffectiveTarget != (common.Address{}) {
		return tx.EffectiveTarget
	}
	if tx.To != nil {
		return *tx.To
	}
	return common.Address{}
}

// Native value sent means a buy, everything else is a transfer
func SwapType(tx *eth.Transaction) model.SwapType {
	if tx.Value != nil && tx.Value.Sign() > 0 {
		return model.SwapTypeBuy
	}
	return model.SwapTypeTransfer
}
