package api

import (
	"github.com/warp-contracts/cashback-scanner/src/reward"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/shopspring/decimal"
)

type Health struct {
	Status                string `json:"status"`
	SecondsSinceLastCycle int64  `json:"seconds_since_last_cycle"`
	ThresholdSeconds      int64  `json:"threshold_seconds"`
	SettlementEnabled     bool   `json:"settlement_enabled"`

	// Omitted when payouts are disabled
	TreasuryBalance *decimal.Decimal `json:"treasury_balance,omitempty"`
}

type Stats struct {
	*model.Stats

	// Omitted when payouts are disabled
	TreasuryBalance *decimal.Decimal `json:"treasury_balance,omitempty"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type Transactions struct {
	Transactions []model.TransactionRecord `json:"transactions"`
	Pagination   Pagination                `json:"pagination"`
}

type Rule struct {
	Id              string           `json:"id"`
	ContractId      string           `json:"contract_id"`
	Name            string           `json:"name"`
	BaseRate        decimal.Decimal  `json:"base_rate"`
	MaxCashback     *decimal.Decimal `json:"max_cashback,omitempty"`
	MinTransaction  *decimal.Decimal `json:"min_transaction,omitempty"`
	BoostMultiplier *decimal.Decimal `json:"boost_multiplier,omitempty"`
	Active          bool             `json:"active"`
	Description     string           `json:"description,omitempty"`
}

func newRule(rule *reward.Rule) Rule {
	return Rule{
		Id:              rule.Id,
		ContractId:      rule.ContractId.Hex(),
		Name:            rule.Name,
		BaseRate:        rule.BaseRate,
		MaxCashback:     rule.MaxCashback,
		MinTransaction:  rule.MinTransaction,
		BoostMultiplier: rule.BoostMultiplier,
		Active:          rule.Active,
		Description:     rule.Description,
	}
}

type Rules struct {
	Rules []Rule `json:"rules"`
}

type RuleStats struct {
	Rules []model.RuleVolume `json:"rules"`
}
