package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/settlement"
	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/logger"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"
	"github.com/warp-contracts/cashback-scanner/src/utils/store"

	"github.com/sirupsen/logrus"
)

var (
	// Record is younger than StaleAfter, the scanner may still be settling it
	ErrNotStale = errors.New("record is not stale yet")

	ErrNotUnrewarded = errors.New("record is not unrewarded")
)

type Store interface {
	StaleRecords(ctx context.Context, olderThan time.Time, limit int) ([]model.TransactionRecord, error)
	FailedRecords(ctx context.Context, limit int) ([]model.TransactionRecord, error)
	GetRecord(ctx context.Context, hash string) (*model.TransactionRecord, error)
	UpdateRecordStatus(ctx context.Context, hash string, update *store.StatusUpdate) error
	ReconcileCursorTotals(ctx context.Context, name string) (*model.ScanCursor, error)
}

type Settler interface {
	Settle(ctx context.Context, hash string) (*settlement.Outcome, error)
}

// Records needing operator attention
type Report struct {
	// Unrewarded with a positive reward, left behind by a crash or a disabled settlement
	Stale []model.TransactionRecord `json:"stale"`

	// Payout failed, never retried automatically
	Failed []model.TransactionRecord `json:"failed"`
}

// Explicit reconciliation, only ever run by an operator
type Reconciler struct {
	log     *logrus.Entry
	config  *config.Config
	store   Store
	settler Settler

	now func() time.Time
}

func NewReconciler(config *config.Config) (self *Reconciler) {
	self = new(Reconciler)
	self.log = logger.NewSublogger("reconciler")
	self.config = config
	self.now = func() time.Time { return time.Now().UTC() }
	return
}

func (self *Reconciler) WithStore(v Store) *Reconciler {
	self.store = v
	return self
}

func (self *Reconciler) WithSettler(v Settler) *Reconciler {
	self.settler = v
	return self
}

func (self *Reconciler) staleBefore() time.Time {
	return self.now().Add(-self.config.Reconcile.StaleAfter)
}

func (self *Reconciler) Report(ctx context.Context) (out *Report, err error) {
	out = new(Report)

	out.Stale, err = self.store.StaleRecords(ctx, self.staleBefore(), self.config.Reconcile.Limit)
	if err != nil {
		return
	}

	out.Failed, err = self.store.FailedRecords(ctx, self.config.Reconcile.Limit)
	if err != nil {
		return
	}

	if out.Stale == nil {
		out.Stale = []model.TransactionRecord{}
	}
	if out.Failed == nil {
		out.Failed = []model.TransactionRecord{}
	}
	return
}

// Loads an unrewarded record old enough for the scanner to be done with it
func (self *Reconciler) stale(ctx context.Context, hash string) (record *model.TransactionRecord, err error) {
	record, err = self.store.GetRecord(ctx, hash)
	if err != nil {
		return
	}
	if record.Status != model.SettlementStatusUnrewarded {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotUnrewarded, hash, record.Status)
	}
	if !record.CreatedAt.Before(self.staleBefore()) {
		return nil, fmt.Errorf("%w: %s created at %s", ErrNotStale, hash, record.CreatedAt)
	}
	return
}

// Closes a stale record without paying, e.g. after the operator paid it by other means
func (self *Reconciler) MarkFailed(ctx context.Context, hash, reason string) (err error) {
	_, err = self.stale(ctx, hash)
	if err != nil {
		return
	}

	settledAt := self.now()
	err = self.store.UpdateRecordStatus(ctx, hash, &store.StatusUpdate{
		Status:        model.SettlementStatusFailed,
		SettledAt:     &settledAt,
		FailureReason: "reconciled by operator: " + reason,
	})
	if err != nil {
		return
	}

	self.log.WithField("tx_hash", hash).WithField("reason", reason).Info("Record marked as failed")
	return
}

// Pays a stale record. The operator must have verified there's no earlier payout on chain.
func (self *Reconciler) Settle(ctx context.Context, hash string) (outcome *settlement.Outcome, err error) {
	_, err = self.stale(ctx, hash)
	if err != nil {
		return
	}

	outcome, err = self.settler.Settle(ctx, hash)
	if outcome == nil {
		return
	}

	// Paid outside of a scan cycle, cursor totals catch up from the records
	_, totalsErr := self.store.ReconcileCursorTotals(ctx, self.config.Scanner.Name)
	if totalsErr != nil {
		self.log.WithError(totalsErr).Warn("Failed to reconcile cursor totals")
	}

	self.log.WithField("tx_hash", hash).WithField("status", outcome.Status).WithField("settlement_ref", outcome.SettlementRef).Info("Record reconciled")
	return
}
