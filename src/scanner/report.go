package scanner

import (
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

// Outcome of processing one transaction
type Result int

const (
	// Doesn't target any rule, nothing stored
	ResultIgnored Result = iota

	// Hash was already stored, processed before
	ResultDuplicate

	// Record stored, no payout made
	ResultRecorded

	// Record stored and paid
	ResultSettled

	// Record stored, payout failed
	ResultSettlementFailed
)

func (self Result) String() string {
	switch self {
	case ResultIgnored:
		return "ignored"
	case ResultDuplicate:
		return "duplicate"
	case ResultRecorded:
		return "recorded"
	case ResultSettled:
		return "settled"
	case ResultSettlementFailed:
		return "settlement_failed"
	default:
		return "unknown"
	}
}

// Stores a record
func (self Result) IsRecorded() bool {
	return self == ResultRecorded || self == ResultSettled || self == ResultSettlementFailed
}

type TxResult struct {
	Hash   string
	Height uint64
	Result Result
	RuleId string
	Reward decimal.Decimal

	// Set for failed settlements and for payable records left unrewarded
	Err error
}

// Summary of one scan cycle
type CycleReport struct {
	CycleId   string
	StartedAt time.Time
	Duration  time.Duration

	// Scanned range, empty when From > To
	From uint64
	To   uint64

	Results []TxResult

	// Cursor was moved to To
	Advanced bool

	// Fatal error that aborted the cycle
	Err error
}

func newCycleReport(startedAt time.Time) *CycleReport {
	return &CycleReport{
		CycleId:   xid.New().String(),
		StartedAt: startedAt,
	}
}

func (self *CycleReport) Count(result Result) (n int) {
	for i := range self.Results {
		if self.Results[i].Result == result {
			n++
		}
	}
	return
}

// Number of records stored in this cycle
func (self *CycleReport) Qualifying() (n int64) {
	for i := range self.Results {
		if self.Results[i].Result.IsRecorded() {
			n++
		}
	}
	return
}

// Sum of rewards paid in this cycle
func (self *CycleReport) RewardPaid() (sum decimal.Decimal) {
	for i := range self.Results {
		if self.Results[i].Result == ResultSettled {
			sum = sum.Add(self.Results[i].Reward)
		}
	}
	return
}

func (self *CycleReport) IsSuccessful() bool {
	return self.Err == nil
}
