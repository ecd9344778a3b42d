package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Read-side queries. None of them change anything.

func (self *Store) Stats(ctx context.Context, name string) (stats *model.Stats, err error) {
	stats = new(model.Stats)

	var row struct {
		TotalTransactions   int64
		PaidTransactions    int64
		FailedTransactions  int64
		PendingTransactions int64
		TotalRewardPaid     decimal.Decimal
	}
	err = self.db.WithContext(ctx).
		Raw(`SELECT
			COUNT(*) AS total_transactions,
			COUNT(*) FILTER (WHERE status = @paid) AS paid_transactions,
			COUNT(*) FILTER (WHERE status = @failed) AS failed_transactions,
			COUNT(*) FILTER (WHERE status = @unrewarded AND reward_amount > 0) AS pending_transactions,
			COALESCE(SUM(reward_amount) FILTER (WHERE status = @paid), 0) AS total_reward_paid
		FROM reward_transactions`,
			map[string]interface{}{
				"paid":       model.SettlementStatusPaid,
				"failed":     model.SettlementStatusFailed,
				"unrewarded": model.SettlementStatusUnrewarded,
			}).
		Scan(&row).
		Error
	if err != nil {
		return nil, transient(err)
	}

	stats.TotalTransactions = row.TotalTransactions
	stats.PaidTransactions = row.PaidTransactions
	stats.FailedTransactions = row.FailedTransactions
	stats.PendingTransactions = row.PendingTransactions
	stats.TotalRewardPaid = row.TotalRewardPaid

	stats.Cursor, err = self.GetCursor(ctx, name)
	if errors.Is(err, model.ErrCursorNotFound) {
		// Scanner didn't start yet
		return stats, nil
	}
	if err != nil {
		return nil, err
	}
	stats.CursorRewardPaid = stats.Cursor.TotalRewardPaid

	return
}

func (self *Store) applyFilter(query *gorm.DB, filter *model.RecordFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.FromAddress != "" {
		query = query.Where("from_address = ?", strings.ToLower(filter.FromAddress))
	}
	if filter.RuleId != "" {
		query = query.Where("rule_id = ?", filter.RuleId)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}

// Page numbering starts at 1. Newest records first.
func (self *Store) ListRecords(ctx context.Context, filter *model.RecordFilter, page, limit int) (records []model.TransactionRecord, total int64, err error) {
	if page < 1 {
		page = 1
	}

	err = self.applyFilter(self.db.WithContext(ctx).Model(&model.TransactionRecord{}), filter).
		Count(&total).
		Error
	if err != nil {
		return nil, 0, transient(err)
	}

	err = self.applyFilter(self.db.WithContext(ctx), filter).
		Order("block_height DESC").
		Order("hash").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).
		Error
	if err != nil {
		return nil, 0, transient(err)
	}
	return
}

func (self *Store) UserRewards(ctx context.Context, address string, limit int) (rewards *model.UserRewards, err error) {
	address = strings.ToLower(address)
	rewards = &model.UserRewards{Address: address}

	var row struct {
		TotalTransactions int64
		TotalReward       decimal.Decimal
		PaidReward        decimal.Decimal
		PendingReward     decimal.Decimal
	}
	err = self.db.WithContext(ctx).
		Raw(`SELECT
			COUNT(*) AS total_transactions,
			COALESCE(SUM(reward_amount), 0) AS total_reward,
			COALESCE(SUM(reward_amount) FILTER (WHERE status = ?), 0) AS paid_reward,
			COALESCE(SUM(reward_amount) FILTER (WHERE status = ?), 0) AS pending_reward
		FROM reward_transactions
		WHERE from_address = ?`, model.SettlementStatusPaid, model.SettlementStatusUnrewarded, address).
		Scan(&row).
		Error
	if err != nil {
		return nil, transient(err)
	}

	rewards.TotalTransactions = row.TotalTransactions
	rewards.TotalReward = row.TotalReward
	rewards.PaidReward = row.PaidReward
	rewards.PendingReward = row.PendingReward

	rewards.Records, _, err = self.ListRecords(ctx, &model.RecordFilter{FromAddress: address}, 1, limit)
	return
}

func (self *Store) RuleVolumes(ctx context.Context) (volumes []model.RuleVolume, err error) {
	err = self.db.WithContext(ctx).
		Raw(`SELECT
			COALESCE(rule_id, '') AS rule_id,
			MAX(rule_name) AS rule_name,
			COUNT(*) AS total_transactions,
			COALESCE(SUM(value), 0) / 1e18 AS total_value,
			COALESCE(SUM(reward_amount), 0) AS total_reward,
			COALESCE(SUM(reward_amount) FILTER (WHERE status = ?), 0) AS paid_reward
		FROM reward_transactions
		GROUP BY rule_id
		ORDER BY total_transactions DESC`, model.SettlementStatusPaid).
		Scan(&volumes).
		Error
	if err != nil {
		return nil, transient(err)
	}
	return
}

// Unrewarded records with a positive reward, created before the given time. Left behind by a crash between recording and settling.
func (self *Store) StaleRecords(ctx context.Context, olderThan time.Time, limit int) (records []model.TransactionRecord, err error) {
	err = self.db.WithContext(ctx).
		Where("status = ? AND reward_amount > 0 AND created_at < ?", model.SettlementStatusUnrewarded, olderThan).
		Order("block_height").
		Limit(limit).
		Find(&records).
		Error
	if err != nil {
		return nil, transient(err)
	}
	return
}

func (self *Store) FailedRecords(ctx context.Context, limit int) (records []model.TransactionRecord, err error) {
	err = self.db.WithContext(ctx).
		Where("status = ?", model.SettlementStatusFailed).
		Order("block_height").
		Limit(limit).
		Find(&records).
		Error
	if err != nil {
		return nil, transient(err)
	}
	return
}
