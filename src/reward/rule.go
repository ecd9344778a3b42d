package reward

import (
	"fmt"
	"strings"

	"github.com/warp-contracts/cashback-scanner/src/utils/config"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Reward rule of a single target contract. Read-only once loaded.
type Rule struct {
	Id         string
	ContractId common.Address
	Name       string
	BaseRate   decimal.Decimal

	// Optional bounds, nil means not set
	MaxCashback    *decimal.Decimal
	MinTransaction *decimal.Decimal

	// Optional, nil means rewards are never boosted
	BoostMultiplier *decimal.Decimal

	Active      bool
	Description string
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func NewRule(c *config.Rule) (self *Rule, err error) {
	err = c.Validate()
	if err != nil {
		return
	}

	self = &Rule{
		Id:          c.Id,
		ContractId:  common.HexToAddress(c.ContractId),
		Name:        c.Name,
		Active:      c.Active,
		Description: c.Description,
	}

	self.BaseRate, err = decimal.NewFromString(c.BaseRate)
	if err != nil {
		return
	}
	self.MaxCashback, err = optionalDecimal(c.MaxCashback)
	if err != nil {
		return
	}
	self.MinTransaction, err = optionalDecimal(c.MinTransaction)
	if err != nil {
		return
	}
	self.BoostMultiplier, err = optionalDecimal(c.BoostMultiplier)
	return
}

func NewRules(configs []config.Rule) (out []*Rule, err error) {
	out = make([]*Rule, 0, len(configs))
	for i := range configs {
		var rule *Rule
		rule, err = NewRule(&configs[i])
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, rule)
	}
	return
}

// Lower case hex used for lookups
func (self *Rule) Key() string {
	return strings.ToLower(self.ContractId.Hex())
}
