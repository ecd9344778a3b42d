package config

import (
	"time"

	"github.com/spf13/viper"
)

type Settlement struct {
	// Turns payouts on. Without a private key and treasury address payouts stay off anyway
	Enabled bool

	// Treasury contract exposing transferToWallet(address,uint256)
	TreasuryContract string

	// Hex encoded key of the account calling the treasury
	PrivateKey string

	// Gas limit of the payout call, 0 means it's estimated
	GasLimit uint64

	// Number of blocks on top of the payout's block needed to consider it final
	Confirmations uint64

	// Max time spent waiting for the payout to be final
	ConfirmationTimeout time.Duration

	// How often the payout receipt is polled
	ConfirmationPollInterval time.Duration

	// Retrying of settlement status updates in the database
	StoreMaxElapsedTime time.Duration
	StoreMaxInterval    time.Duration
}

func setSettlementDefaults() {
	viper.SetDefault("Settlement.Enabled", "true")
	viper.SetDefault("Settlement.TreasuryContract", "0x1DC6CEE4D32Cc8B06fC4Cea268ccd774451E08b4")
	viper.SetDefault("Settlement.PrivateKey", "")
	viper.SetDefault("Settlement.GasLimit", "0")
	viper.SetDefault("Settlement.Confirmations", "1")
	viper.SetDefault("Settlement.ConfirmationTimeout", "2m")
	viper.SetDefault("Settlement.ConfirmationPollInterval", "2s")
	viper.SetDefault("Settlement.StoreMaxElapsedTime", "1m")
	viper.SetDefault("Settlement.StoreMaxInterval", "5s")
}
