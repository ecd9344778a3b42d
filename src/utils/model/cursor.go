package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const TableScanCursor = "scanner_state"

// Durable scan progress, one row per scanner name
type ScanCursor struct {
	Name string `gorm:"primaryKey" json:"name"`

	// Last height whose every transaction has a durable outcome
	LastConfirmedHeight uint64 `json:"last_confirmed_height"`

	// Number of recorded transactions matching a rule
	TotalQualifying int64 `json:"total_qualifying"`

	// Sum of rewards of paid records, in native units
	TotalRewardPaid decimal.Decimal `gorm:"type:decimal(38,18);not null;default:0" json:"total_reward_paid"`

	LastScanTimestamp time.Time `json:"last_scan_timestamp"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (ScanCursor) TableName() string {
	return TableScanCursor
}

// Changes applied to the cursor after a fully processed range
type CursorAdvance struct {
	Height          uint64
	QualifyingDelta int64
	RewardPaidDelta decimal.Decimal
	Timestamp       time.Time
}
