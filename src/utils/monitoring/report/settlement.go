package report

import "go.uber.org/atomic"

type SettlementErrors struct {
	SubmissionFailures   atomic.Uint64 `json:"submission_failures"`
	ConfirmationTimeouts atomic.Uint64 `json:"confirmation_timeouts"`
	ConfirmationFailures atomic.Uint64 `json:"confirmation_failures"`
	StatusUpdateFailures atomic.Uint64 `json:"status_update_failures"`
	AlreadyTerminal      atomic.Uint64 `json:"already_terminal"`
}

type SettlementState struct {
	IsEnabled        atomic.Bool    `json:"is_enabled"`
	PayoutsSubmitted atomic.Uint64  `json:"payouts_submitted"`
	PayoutsConfirmed atomic.Uint64  `json:"payouts_confirmed"`
	PayoutsFailed    atomic.Uint64  `json:"payouts_failed"`
	PayoutsInFlight  atomic.Int64   `json:"payouts_in_flight"`
	RewardPaid       atomic.Float64 `json:"reward_paid"`
}

type SettlementReport struct {
	State  SettlementState  `json:"state"`
	Errors SettlementErrors `json:"errors"`
}
