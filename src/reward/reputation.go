package reward

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Tells whether a sender trades in high volume
type ReputationSource interface {
	IsHighVolume(ctx context.Context, address string) (bool, error)
}

// Default source, nobody is high volume
type NeverHighVolume struct{}

func (NeverHighVolume) IsHighVolume(ctx context.Context, address string) (bool, error) {
	return false, nil
}

type reputationResponse struct {
	HighVolume bool `json:"high_volume"`
}

// Asks an HTTP service about the sender. Answers are cached.
type HttpReputation struct {
	log    *logrus.Entry
	client *resty.Client
	cache  *cache.Cache
}

func NewHttpReputation(config *config.Reputation) (self *HttpReputation) {
	self = new(HttpReputation)
	self.log = logger.NewSublogger("reputation")
	self.cache = cache.New(config.CacheTTL, 2*config.CacheTTL)

	self.client = resty.New().
		SetBaseURL(strings.TrimSuffix(config.Url, "/")).
		SetTimeout(config.RequestTimeout).
		SetHeader("Accept", "application/json")
	if config.ApiKey != "" {
		self.client.SetHeader("X-Api-Key", config.ApiKey)
	}
	return
}

func (self *HttpReputation) IsHighVolume(ctx context.Context, address string) (highVolume bool, err error) {
	address = strings.ToLower(address)
	if v, ok := self.cache.Get(address); ok {
		return v.(bool), nil
	}

	var body reputationResponse
	resp, err := self.client.R().
		SetContext(ctx).
		SetResult(&body).
		SetPathParam("address", address).
		Get("/{address}")
	if err != nil {
		return
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		highVolume = body.HighVolume
	case http.StatusNotFound:
		// Unknown address
		highVolume = false
	default:
		return false, fmt.Errorf("reputation source returned %s", resp.Status())
	}

	self.cache.SetDefault(address, highVolume)
	return
}

func NewReputationSource(config *config.Reputation) ReputationSource {
	if !config.Enabled || config.Url == "" {
		return NeverHighVolume{}
	}
	return NewHttpReputation(config)
}
