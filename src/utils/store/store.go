package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/logger"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persistent store of the scan cursor and transaction records, backed by Postgres
type Store struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewStore(db *gorm.DB) (self *Store) {
	self = new(Store)
	self.db = db
	self.log = logger.NewSublogger("store")
	return
}

func (self *Store) DB() *gorm.DB {
	return self.db
}

// Everything that isn't an expected outcome means the database is unavailable
func transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", model.ErrTransientSource, err)
}

func (self *Store) GetCursor(ctx context.Context, name string) (cursor *model.ScanCursor, err error) {
	cursor = new(model.ScanCursor)
	err = self.db.WithContext(ctx).
		Where("name = ?", name).
		First(cursor).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrCursorNotFound
	}
	if err != nil {
		return nil, transient(err)
	}
	return
}

// Inserts the cursor unless it already exists. Returns true if the row was created.
func (self *Store) CreateCursor(ctx context.Context, cursor *model.ScanCursor) (created bool, err error) {
	result := self.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(cursor)
	if result.Error != nil {
		return false, transient(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Moves the cursor forward and increments its counters in one transaction.
// Height never decreases, a lower height only updates counters and the timestamp.
func (self *Store) AdvanceCursor(ctx context.Context, name string, advance *model.CursorAdvance) (cursor *model.ScanCursor, err error) {
	cursor = new(model.ScanCursor)
	err = self.db.WithContext(ctx).
		Transaction(func(tx *gorm.DB) (err error) {
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("name = ?", name).
				First(cursor).
				Error
			if err != nil {
				return
			}

			height := cursor.LastConfirmedHeight
			if advance.Height > height {
				height = advance.Height
			} else if advance.Height < height {
				self.log.WithField("current", height).WithField("requested", advance.Height).Warn("Refusing to move cursor backwards")
			}

			err = tx.Model(&model.ScanCursor{}).
				Where("name = ?", name).
				Updates(map[string]interface{}{
					"last_confirmed_height": height,
					"total_qualifying":      gorm.Expr("total_qualifying + ?", advance.QualifyingDelta),
					"total_reward_paid":     gorm.Expr("total_reward_paid + ?", advance.RewardPaidDelta),
					"last_scan_timestamp":   advance.Timestamp,
				}).
				Error
			if err != nil {
				return
			}

			return tx.Where("name = ?", name).First(cursor).Error
		}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrCursorNotFound
	}
	if err != nil {
		return nil, transient(err)
	}
	return
}

// Brings cursor totals up to the values derived from records. Totals only grow.
func (self *Store) ReconcileCursorTotals(ctx context.Context, name string) (cursor *model.ScanCursor, err error) {
	err = self.db.WithContext(ctx).
		Exec(`UPDATE scanner_state SET
			total_reward_paid = GREATEST(total_reward_paid, (SELECT COALESCE(SUM(reward_amount), 0) FROM reward_transactions WHERE status = ?)),
			total_qualifying = GREATEST(total_qualifying, (SELECT COUNT(*) FROM reward_transactions)),
			updated_at = NOW()
		WHERE name = ?`, model.SettlementStatusPaid, name).
		Error
	if err != nil {
		return nil, transient(err)
	}
	return self.GetCursor(ctx, name)
}

func (self *Store) ExistsRecord(ctx context.Context, hash string) (exists bool, err error) {
	var count int64
	err = self.db.WithContext(ctx).
		Model(&model.TransactionRecord{}).
		Where("hash = ?", hash).
		Limit(1).
		Count(&count).
		Error
	if err != nil {
		return false, transient(err)
	}
	return count > 0, nil
}

// Fails with ErrDuplicateRecord if the hash is already stored
func (self *Store) InsertRecord(ctx context.Context, record *model.TransactionRecord) (err error) {
	result := self.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record)
	if result.Error != nil {
		return transient(result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrDuplicateRecord
	}
	return nil
}

func (self *Store) GetRecord(ctx context.Context, hash string) (record *model.TransactionRecord, err error) {
	record = new(model.TransactionRecord)
	err = self.db.WithContext(ctx).
		Where("hash = ?", hash).
		First(record).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, transient(err)
	}
	return
}

type StatusUpdate struct {
	Status        model.SettlementStatus
	SettlementRef string
	SettledAt     *time.Time
	FailureReason string
}

// Moves an unrewarded record to a terminal status. Terminal records are left untouched.
func (self *Store) UpdateRecordStatus(ctx context.Context, hash string, update *StatusUpdate) (err error) {
	if !update.Status.IsTerminal() {
		return fmt.Errorf("status %s is not terminal", update.Status)
	}

	result := self.db.WithContext(ctx).
		Model(&model.TransactionRecord{}).
		Where("hash = ? AND status = ?", hash, model.SettlementStatusUnrewarded).
		Updates(map[string]interface{}{
			"status":         update.Status,
			"settlement_ref": update.SettlementRef,
			"settled_at":     update.SettledAt,
			"failure_reason": update.FailureReason,
		})
	if result.Error != nil {
		return transient(result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	exists, err := self.ExistsRecord(ctx, hash)
	if err != nil {
		return
	}
	if !exists {
		return model.ErrRecordNotFound
	}
	return model.ErrRecordTerminal
}
