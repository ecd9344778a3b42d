package config

import (
	"time"

	"github.com/spf13/viper"
)

type Api struct {
	// Health check fails when the last successful scan cycle is older than this
	HealthThreshold time.Duration

	// Pagination of /api/transactions
	DefaultPageSize int
	MaxPageSize     int

	// Rate limit of the read-only endpoints
	RequestsPerSecond float64
	Burst             int

	// How long the treasury balance is reused before asking the ledger again
	BalanceCacheTTL time.Duration
}

func setApiDefaults() {
	viper.SetDefault("Api.HealthThreshold", "120s")
	viper.SetDefault("Api.DefaultPageSize", "20")
	viper.SetDefault("Api.MaxPageSize", "100")
	viper.SetDefault("Api.RequestsPerSecond", "20")
	viper.SetDefault("Api.Burst", "40")
	viper.SetDefault("Api.BalanceCacheTTL", "15s")
}
