package config

import (
	"time"

	"github.com/spf13/viper"
)

type Ledger struct {
	// JSON-RPC endpoint of the chain
	Url string

	// Chain id used for signing payouts, 0 means it's fetched from the node
	ChainId int64

	// Max number of RPC calls per second
	RequestsPerSecond int

	// Timeout of a single RPC call
	RequestTimeout time.Duration

	// Fetch receipts with eth_getBlockReceipts, falls back to per-transaction receipts when the node doesn't support it
	UseBlockReceipts bool
}

func setLedgerDefaults() {
	viper.SetDefault("Ledger.Url", "https://rpc.testnet.soniclabs.com/")
	viper.SetDefault("Ledger.ChainId", "0")
	viper.SetDefault("Ledger.RequestsPerSecond", "20")
	viper.SetDefault("Ledger.RequestTimeout", "15s")
	viper.SetDefault("Ledger.UseBlockReceipts", "true")
}
