package reward

import (
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/config"

	"github.com/shopspring/decimal"
)

// Conditions under which rewards are multiplied
type BoostPolicy struct {
	// Value at or above this threshold is boosted, nil turns the condition off
	LargeTransactionThreshold *decimal.Decimal

	// Boosted week days
	Days []time.Weekday

	// Used to tell the week day
	Location *time.Location
}

// Everything the boost predicate depends on, captured once per transaction
type BoostInputs struct {
	// Scan cycle's timestamp
	EvaluatedAt time.Time

	// Flag from the reputation source
	HighVolumeSender bool
}

func NewBoostPolicy(c *config.Boost) (self *BoostPolicy, err error) {
	self = new(BoostPolicy)

	self.LargeTransactionThreshold, err = optionalDecimal(c.LargeTransactionThreshold)
	if err != nil {
		return
	}

	self.Days, err = c.Weekdays()
	if err != nil {
		return
	}

	self.Location, err = time.LoadLocation(c.Location)
	return
}

func (self *BoostPolicy) isBoostDay(t time.Time) bool {
	loc := self.Location
	if loc == nil {
		loc = time.UTC
	}
	day := t.In(loc).Weekday()
	for _, d := range self.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Logical OR of the large transaction, high volume sender and boost day conditions
func (self *BoostPolicy) Applies(value decimal.Decimal, inputs *BoostInputs) bool {
	if self.LargeTransactionThreshold != nil && value.GreaterThanOrEqual(*self.LargeTransactionThreshold) {
		return true
	}
	if inputs.HighVolumeSender {
		return true
	}
	return self.isBoostDay(inputs.EvaluatedAt)
}
