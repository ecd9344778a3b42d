package model

import (
	"github.com/shopspring/decimal"
)

// Aggregated statistics computed from the store
type Stats struct {
	Cursor *ScanCursor `json:"cursor"`

	TotalTransactions  int64 `json:"total_transactions"`
	PaidTransactions   int64 `json:"paid_transactions"`
	FailedTransactions int64 `json:"failed_transactions"`

	// Unrewarded records with a positive reward
	PendingTransactions int64 `json:"pending_transactions"`

	// Sum over paid records
	TotalRewardPaid decimal.Decimal `json:"total_reward_paid"`

	// Value kept in the cursor, may lag after a crash
	CursorRewardPaid decimal.Decimal `json:"cursor_reward_paid"`
}

type UserRewards struct {
	Address           string          `json:"address"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalReward       decimal.Decimal `json:"total_reward"`
	PaidReward        decimal.Decimal `json:"paid_reward"`
	PendingReward     decimal.Decimal `json:"pending_reward"`

	Records []TransactionRecord `json:"records"`
}

type RuleVolume struct {
	RuleId            string          `json:"rule_id"`
	RuleName          string          `json:"rule_name"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalValue        decimal.Decimal `json:"total_value"`
	TotalReward       decimal.Decimal `json:"total_reward"`
	PaidReward        decimal.Decimal `json:"paid_reward"`
}
