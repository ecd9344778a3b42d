package model

import (
	"time"

	"github.com/jackc/pgtype"
	"github.com/shopspring/decimal"
)

const TableTransactionRecords = "reward_transactions"

type SettlementStatus string

const (
	SettlementStatusUnrewarded SettlementStatus = "unrewarded"
	SettlementStatusPaid       SettlementStatus = "paid"
	SettlementStatusFailed     SettlementStatus = "failed"
)

// Terminal records are never changed again
func (self SettlementStatus) IsTerminal() bool {
	return self == SettlementStatusPaid || self == SettlementStatusFailed
}

func (self SettlementStatus) IsValid() bool {
	return self == SettlementStatusUnrewarded || self.IsTerminal()
}

// Best-effort tag derived only from the native value
type SwapType string

const (
	SwapTypeBuy      SwapType = "buy"
	SwapTypeTransfer SwapType = "transfer"
)

// One row per observed transaction that targeted a rule's contract
type TransactionRecord struct {
	Hash            string          `gorm:"primaryKey" json:"hash"`
	FromAddress     string          `json:"from_address"`
	ToAddress       string          `json:"to_address"`
	EffectiveTarget string          `json:"effective_target"`
	Value           decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"value"`
	BlockHeight     uint64          `json:"block_height"`
	BlockTimestamp  time.Time       `json:"block_timestamp"`
	RuleId          *string         `json:"rule_id"`
	RuleName        string          `json:"rule_name"`
	SwapType        SwapType        `json:"swap_type"`

	RewardAmount decimal.Decimal `gorm:"type:decimal(38,18);not null;default:0" json:"reward_amount"`
	RewardRate   decimal.Decimal `gorm:"type:decimal(20,18);not null;default:0" json:"reward_rate"`
	Boosted      bool            `json:"boosted"`

	Status        SettlementStatus `json:"status"`
	SettlementRef string           `json:"settlement_ref,omitempty"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`
	FailureReason string           `json:"failure_reason,omitempty"`

	Metadata pgtype.JSONB `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TransactionRecord) TableName() string {
	return TableTransactionRecords
}

// Reward amount is positive and the record still waits for a payout
func (self *TransactionRecord) IsPayable() bool {
	return self.Status == SettlementStatusUnrewarded && self.RewardAmount.IsPositive()
}

// Extra information about the transaction, stored as JSONB
type TransactionMetadata struct {
	GasUsed  uint64 `json:"gas_used,omitempty"`
	GasPrice string `json:"gas_price,omitempty"`
	Index    uint   `json:"index"`
	Relayed  bool   `json:"relayed,omitempty"`
}

func (self *TransactionRecord) SetMetadata(v *TransactionMetadata) error {
	return self.Metadata.Set(v)
}

// Filter used by the read-side queries
type RecordFilter struct {
	FromAddress string
	RuleId      string
	Status      SettlementStatus
}
