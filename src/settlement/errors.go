package settlement

import "errors"

var (
	// Payouts are off or the treasury isn't configured. Transactions are still recorded.
	ErrDisabled = errors.New("settlement disabled")

	// Payout transaction couldn't be sent
	ErrSubmission = errors.New("payout submission failed")

	// Payout wasn't final before the confirmation timeout
	ErrConfirmationTimeout = errors.New("payout confirmation timed out")

	// Payout was mined but didn't succeed, or waiting for it failed
	ErrConfirmationFailed = errors.New("payout confirmation failed")

	// Record is already paid or failed, payout is never repeated
	ErrAlreadyTerminal = errors.New("record already settled")

	// Record doesn't carry a positive reward
	ErrNotPayable = errors.New("record has no reward to pay")
)
