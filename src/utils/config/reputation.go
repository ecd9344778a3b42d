package config

import (
	"time"

	"github.com/spf13/viper"
)

// External source flagging high-volume senders
type Reputation struct {
	Enabled bool

	// GET <Url>/<address> returns {"high_volume": bool}
	Url string

	// Sent in the X-Api-Key header, if set
	ApiKey string

	// Timeout of a single request
	RequestTimeout time.Duration

	// How long answers are cached
	CacheTTL time.Duration
}

func setReputationDefaults() {
	viper.SetDefault("Reputation.Enabled", "false")
	viper.SetDefault("Reputation.Url", "")
	viper.SetDefault("Reputation.ApiKey", "")
	viper.SetDefault("Reputation.RequestTimeout", "5s")
	viper.SetDefault("Reputation.CacheTTL", "10m")
}
