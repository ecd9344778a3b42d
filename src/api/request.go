package api

import (
	"errors"
	"strings"

	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidPage    = errors.New("page and limit must be positive")
)

type ListTransactions struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	User   string `form:"user"`
	Rule   string `form:"rule"`
	Status string `form:"status"`
}

// Applies pagination defaults and checks filters
func (self *ListTransactions) normalize(defaultLimit, maxLimit int) (err error) {
	if self.Page < 0 || self.Limit < 0 {
		return ErrInvalidPage
	}
	if self.Page == 0 {
		self.Page = 1
	}
	if self.Limit == 0 {
		self.Limit = defaultLimit
	}
	if self.Limit > maxLimit {
		self.Limit = maxLimit
	}

	if self.User != "" {
		if !common.IsHexAddress(self.User) {
			return ErrInvalidAddress
		}
		self.User = strings.ToLower(self.User)
	}

	if self.Status != "" && !model.SettlementStatus(self.Status).IsValid() {
		return ErrInvalidStatus
	}
	return
}

func (self *ListTransactions) filter() *model.RecordFilter {
	return &model.RecordFilter{
		FromAddress: self.User,
		RuleId:      self.Rule,
		Status:      model.SettlementStatus(self.Status),
	}
}

type UserRewards struct {
	Limit int `form:"limit"`
}
