package config

import (
	"github.com/spf13/viper"
)

type Notifier struct {
	// Publish settlement outcomes to Redis
	Enabled bool

	// Redis channel receiving the outcomes
	ChannelName string
}

func setNotifierDefaults() {
	viper.SetDefault("Notifier.Enabled", "false")
	viper.SetDefault("Notifier.ChannelName", "cashback-settlements")
}
