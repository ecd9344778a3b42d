package settlement

import (
	"encoding/json"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/shopspring/decimal"
)

// Result of one settlement attempt
type Outcome struct {
	Hash          string                 `json:"hash"`
	Recipient     string                 `json:"recipient"`
	Amount        decimal.Decimal        `json:"amount"`
	Status        model.SettlementStatus `json:"status"`
	SettlementRef string                 `json:"settlement_ref,omitempty"`
	SettledAt     time.Time              `json:"settled_at"`
	FailureReason string                 `json:"failure_reason,omitempty"`
}

func (self *Outcome) IsPaid() bool {
	return self.Status == model.SettlementStatusPaid
}

func (self *Outcome) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}
