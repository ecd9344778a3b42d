package api

import (
	"context"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/reward"
	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/eth"
	. "github.com/warp-contracts/cashback-scanner/src/utils/logger"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/teivah/onecontext"
	"golang.org/x/time/rate"
)

// Read-only queries served by the API
type Reader interface {
	Stats(ctx context.Context, name string) (*model.Stats, error)
	ListRecords(ctx context.Context, filter *model.RecordFilter, page, limit int) ([]model.TransactionRecord, int64, error)
	UserRewards(ctx context.Context, address string, limit int) (*model.UserRewards, error)
	RuleVolumes(ctx context.Context) ([]model.RuleVolume, error)
}

type RuleSource interface {
	Rules() []*reward.Rule
}

type HealthSource interface {
	SinceLastSuccess(now time.Time) time.Duration
}

// Funds left for payouts, in wei
type BalanceSource interface {
	Balance(ctx context.Context) (*big.Int, error)
}

const balanceCacheKey = "treasury"

// Read-only HTTP query surface. Never changes the store.
type Api struct {
	config *config.Config

	// Cancelled when the server stops
	ctx context.Context

	reader            Reader
	rules             RuleSource
	health            HealthSource
	settlementEnabled bool
	limiter           *rate.Limiter

	// Only set when payouts are enabled
	balance      BalanceSource
	balanceCache *cache.Cache
}

func NewApi(config *config.Config) (self *Api) {
	self = new(Api)
	self.config = config
	self.ctx = context.Background()
	self.limiter = rate.NewLimiter(rate.Limit(config.Api.RequestsPerSecond), config.Api.Burst)
	self.balanceCache = cache.New(config.Api.BalanceCacheTTL, 2*config.Api.BalanceCacheTTL)
	return
}

func (self *Api) WithContext(ctx context.Context) *Api {
	self.ctx = ctx
	return self
}

func (self *Api) WithReader(v Reader) *Api {
	self.reader = v
	return self
}

func (self *Api) WithRules(v RuleSource) *Api {
	self.rules = v
	return self
}

func (self *Api) WithHealth(v HealthSource) *Api {
	self.health = v
	return self
}

func (self *Api) WithBalance(v BalanceSource) *Api {
	self.balance = v
	return self
}

func (self *Api) WithSettlementEnabled(v bool) *Api {
	self.settlementEnabled = v
	return self
}

func (self *Api) Register(router *gin.Engine) {
	router.GET("health", self.onGetHealth)

	v := router.Group("api", self.limit)
	{
		v.GET("stats", self.onGetStats)
		v.GET("transactions", self.onGetTransactions)
		v.GET("users/:address/rewards", self.onGetUserRewards)
		v.GET("rules", self.onGetRules)
		v.GET("rules/stats", self.onGetRuleStats)
	}
}

func (self *Api) limit(c *gin.Context) {
	if !self.limiter.Allow() {
		LOGE(c, nil, http.StatusTooManyRequests).Debug("Rate limit exceeded")
		return
	}
	c.Next()
}

// Request is cancelled when either the client goes away or the server stops
func (self *Api) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return onecontext.Merge(c.Request.Context(), self.ctx)
}

// Nil when payouts are disabled or the ledger couldn't be asked. Never fails the request.
func (self *Api) treasuryBalance(c *gin.Context) *decimal.Decimal {
	if self.balance == nil {
		return nil
	}

	if v, ok := self.balanceCache.Get(balanceCacheKey); ok {
		balance := v.(decimal.Decimal)
		return &balance
	}

	ctx, cancel := self.context(c)
	defer cancel()

	wei, err := self.balance.Balance(ctx)
	if err != nil {
		LOG(c).WithError(err).Warn("Failed to get treasury balance")
		return nil
	}

	balance := eth.WeiToNative(wei)
	self.balanceCache.SetDefault(balanceCacheKey, balance)
	return &balance
}

func (self *Api) onGetHealth(c *gin.Context) {
	threshold := self.config.Api.HealthThreshold
	since := self.health.SinceLastSuccess(time.Now())

	out := Health{
		Status:                "healthy",
		SecondsSinceLastCycle: int64(since.Seconds()),
		ThresholdSeconds:      int64(threshold.Seconds()),
		SettlementEnabled:     self.settlementEnabled,
		TreasuryBalance:       self.treasuryBalance(c),
	}

	status := http.StatusOK
	if since > threshold {
		out.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, &out)
}

func (self *Api) onGetStats(c *gin.Context) {
	ctx, cancel := self.context(c)
	defer cancel()

	stats, err := self.reader.Stats(ctx, self.config.Scanner.Name)
	if err != nil {
		LOGE(c, err, http.StatusInternalServerError).Error("Failed to get stats")
		return
	}
	c.JSON(http.StatusOK, &Stats{
		Stats:           stats,
		TreasuryBalance: self.treasuryBalance(c),
	})
}

func (self *Api) onGetTransactions(c *gin.Context) {
	var in ListTransactions
	err := c.ShouldBindQuery(&in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Debug("Failed to parse request")
		return
	}

	err = in.normalize(self.config.Api.DefaultPageSize, self.config.Api.MaxPageSize)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Debug("Invalid request")
		return
	}

	ctx, cancel := self.context(c)
	defer cancel()

	records, total, err := self.reader.ListRecords(ctx, in.filter(), in.Page, in.Limit)
	if err != nil {
		LOGE(c, err, http.StatusInternalServerError).Error("Failed to list transactions")
		return
	}
	if records == nil {
		records = []model.TransactionRecord{}
	}

	c.JSON(http.StatusOK, &Transactions{
		Transactions: records,
		Pagination: Pagination{
			Page:  in.Page,
			Limit: in.Limit,
			Total: total,
			Pages: (total + int64(in.Limit) - 1) / int64(in.Limit),
		},
	})
}

func (self *Api) onGetUserRewards(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		LOGE(c, ErrInvalidAddress, http.StatusBadRequest).Debug("Invalid address")
		return
	}

	var in UserRewards
	err := c.ShouldBindQuery(&in)
	if err != nil || in.Limit < 0 {
		LOGE(c, ErrInvalidPage, http.StatusBadRequest).Debug("Failed to parse request")
		return
	}
	if in.Limit == 0 || in.Limit > self.config.Api.MaxPageSize {
		in.Limit = self.config.Api.DefaultPageSize
	}

	ctx, cancel := self.context(c)
	defer cancel()

	rewards, err := self.reader.UserRewards(ctx, strings.ToLower(address), in.Limit)
	if err != nil {
		LOGE(c, err, http.StatusInternalServerError).Error("Failed to get user rewards")
		return
	}
	c.JSON(http.StatusOK, rewards)
}

func (self *Api) onGetRules(c *gin.Context) {
	rules := self.rules.Rules()
	out := Rules{Rules: make([]Rule, 0, len(rules))}
	for _, rule := range rules {
		out.Rules = append(out.Rules, newRule(rule))
	}
	c.JSON(http.StatusOK, &out)
}

func (self *Api) onGetRuleStats(c *gin.Context) {
	ctx, cancel := self.context(c)
	defer cancel()

	volumes, err := self.reader.RuleVolumes(ctx)
	if err != nil {
		LOGE(c, err, http.StatusInternalServerError).Error("Failed to get rule stats")
		return
	}
	if volumes == nil {
		volumes = []model.RuleVolume{}
	}
	c.JSON(http.StatusOK, &RuleStats{Rules: volumes})
}
