package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/eth"
	"github.com/warp-contracts/cashback-scanner/src/utils/logger"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"
	"github.com/warp-contracts/cashback-scanner/src/utils/monitoring"
	"github.com/warp-contracts/cashback-scanner/src/utils/store"
	"github.com/warp-contracts/cashback-scanner/src/utils/task"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// External system that executes payouts
type Payer interface {
	Payout(ctx context.Context, recipient common.Address, amount *big.Int) (ref string, err error)
	AwaitConfirmation(ctx context.Context, ref string) error
}

// Part of the store used for settling
type Store interface {
	GetRecord(ctx context.Context, hash string) (*model.TransactionRecord, error)
	UpdateRecordStatus(ctx context.Context, hash string, update *store.StatusUpdate) error
}

// Receives outcomes of finished settlements
type OutcomeNotifier interface {
	Notify(outcome *Outcome)
}

// The only place that sends payouts. Each record is paid at most once, failures are final.
type Executor struct {
	log     *logrus.Entry
	config  *config.Settlement
	store   Store
	payer   Payer
	monitor monitoring.Monitor

	notifier OutcomeNotifier

	// Overridable in tests
	now func() time.Time
}

// A nil payer means settlement is disabled
func NewExecutor(config *config.Settlement, store Store, payer Payer) (self *Executor) {
	self = new(Executor)
	self.log = logger.NewSublogger("settlement")
	self.config = config
	self.store = store
	self.payer = payer
	self.now = func() time.Time { return time.Now().UTC() }
	return
}

func (self *Executor) WithMonitor(monitor monitoring.Monitor) *Executor {
	self.monitor = monitor
	self.monitor.GetReport().Settlement.State.IsEnabled.Store(self.IsEnabled())
	return self
}

func (self *Executor) WithNotifier(notifier OutcomeNotifier) *Executor {
	self.notifier = notifier
	return self
}

func (self *Executor) IsEnabled() bool {
	return self.payer != nil && self.config.Enabled
}

// Pays the reward of an unrewarded record and moves it to paid or failed.
// Returns the outcome together with the error that made the payout fail.
// Once the payout is submitted the wait for its confirmation ignores ctx cancellation,
// a submitted payout is never abandoned.
func (self *Executor) Settle(ctx context.Context, hash string) (outcome *Outcome, err error) {
	if !self.IsEnabled() {
		return nil, ErrDisabled
	}

	log := self.log.WithField("tx_hash", hash)

	// Source of truth for the terminal check
	record, err := self.store.GetRecord(ctx, hash)
	if err != nil {
		return
	}
	if record.Status.IsTerminal() {
		self.report(func(r *reportView) { r.errors.AlreadyTerminal.Inc() })
		log.WithField("status", record.Status).Warn("Record already settled, skipping payout")
		return nil, ErrAlreadyTerminal
	}
	if !record.RewardAmount.IsPositive() {
		return nil, ErrNotPayable
	}
	if !common.IsHexAddress(record.FromAddress) {
		return nil, fmt.Errorf("%w: invalid recipient %q", ErrNotPayable, record.FromAddress)
	}

	// Nothing was sent yet, the record stays unrewarded for reconciliation
	err = ctx.Err()
	if err != nil {
		return
	}

	outcome = &Outcome{
		Hash:      record.Hash,
		Recipient: record.FromAddress,
		Amount:    record.RewardAmount,
	}

	self.report(func(r *reportView) { r.state.PayoutsInFlight.Inc() })
	defer self.report(func(r *reportView) { r.state.PayoutsInFlight.Dec() })

	detached := context.WithoutCancel(ctx)

	ref, err := self.payer.Payout(detached, common.HexToAddress(record.FromAddress), eth.NativeToWei(record.RewardAmount))
	if err != nil {
		self.report(func(r *reportView) { r.errors.SubmissionFailures.Inc() })
		err = fmt.Errorf("%w: %w", ErrSubmission, err)
		log.WithError(err).Error("Failed to submit payout")
		return outcome, self.finish(detached, outcome, err)
	}

	outcome.SettlementRef = ref
	log = log.WithField("settlement_ref", ref)
	self.report(func(r *reportView) { r.state.PayoutsSubmitted.Inc() })

	err = self.await(detached, ref)
	if err != nil {
		log.WithError(err).Error("Payout not confirmed")
		return outcome, self.finish(detached, outcome, err)
	}

	log.WithField("amount", outcome.Amount).WithField("recipient", outcome.Recipient).Info("Payout confirmed")
	return outcome, self.finish(detached, outcome, nil)
}

func (self *Executor) await(ctx context.Context, ref string) (err error) {
	if self.config.ConfirmationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, self.config.ConfirmationTimeout)
		defer cancel()
	}

	err = self.payer.AwaitConfirmation(ctx, ref)
	if err == nil {
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		self.report(func(r *reportView) { r.errors.ConfirmationTimeouts.Inc() })
		return fmt.Errorf("%w: %w", ErrConfirmationTimeout, err)
	}

	self.report(func(r *reportView) { r.errors.ConfirmationFailures.Inc() })
	return fmt.Errorf("%w: %w", ErrConfirmationFailed, err)
}

// Stores the terminal status. Returns payoutErr, or the store error if the status couldn't be saved.
func (self *Executor) finish(ctx context.Context, outcome *Outcome, payoutErr error) (err error) {
	outcome.SettledAt = self.now()
	if payoutErr == nil {
		outcome.Status = model.SettlementStatusPaid
	} else {
		outcome.Status = model.SettlementStatusFailed
		outcome.FailureReason = payoutErr.Error()
	}

	settledAt := outcome.SettledAt
	update := &store.StatusUpdate{
		Status:        outcome.Status,
		SettlementRef: outcome.SettlementRef,
		SettledAt:     &settledAt,
		FailureReason: outcome.FailureReason,
	}

	err = task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.config.StoreMaxElapsedTime).
		WithMaxInterval(self.config.StoreMaxInterval).
		WithAcceptableDuration(self.config.StoreMaxInterval * 2).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if !errors.Is(err, model.ErrTransientSource) {
				return backoff.Permanent(err)
			}
			log := self.log.WithError(err).WithField("tx_hash", outcome.Hash)
			if isDurationAcceptable {
				log.Warn("Failed to store settlement status, retrying")
			} else {
				log.Error("Failed to store settlement status, retrying")
			}
			return err
		}).
		Run(func() error {
			return self.store.UpdateRecordStatus(ctx, outcome.Hash, update)
		})
	if err != nil {
		self.report(func(r *reportView) { r.errors.StatusUpdateFailures.Inc() })
		self.log.WithError(err).
			WithField("tx_hash", outcome.Hash).
			WithField("settlement_ref", outcome.SettlementRef).
			WithField("status", outcome.Status).
			Error("Failed to store settlement status, record needs manual reconciliation")
		if payoutErr != nil {
			return errors.Join(payoutErr, err)
		}
		return err
	}

	if outcome.IsPaid() {
		self.report(func(r *reportView) {
			r.state.PayoutsConfirmed.Inc()
			r.state.RewardPaid.Add(outcome.Amount.InexactFloat64())
		})
	} else {
		self.report(func(r *reportView) { r.state.PayoutsFailed.Inc() })
	}

	if self.notifier != nil {
		self.notifier.Notify(outcome)
	}

	return payoutErr
}
