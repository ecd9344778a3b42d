package config

import (
	"time"

	"github.com/spf13/viper"
)

type Scanner struct {
	// Name of the cursor row in the scanner_state table
	Name string

	// How often a scan cycle is triggered
	Interval time.Duration

	// On the very first run the cursor is seeded this many blocks behind the tip
	BackfillWindow int64

	// Max number of blocks scanned in one cycle, 0 is no limit
	MaxBlocksPerCycle uint64

	// Number of workers prefetching blocks. Transactions are always processed serially
	FetchConcurrency int

	// Max number of blocks waiting in the prefetch queue
	FetchQueueSize int

	// Retrying RPC calls needed to start the scanner
	StartupMaxElapsedTime time.Duration
	StartupMaxInterval    time.Duration
}

func setScannerDefaults() {
	viper.SetDefault("Scanner.Name", "main-scanner")
	viper.SetDefault("Scanner.Interval", "30s")
	viper.SetDefault("Scanner.BackfillWindow", "10")
	viper.SetDefault("Scanner.MaxBlocksPerCycle", "0")
	viper.SetDefault("Scanner.FetchConcurrency", "1")
	viper.SetDefault("Scanner.FetchQueueSize", "100")
	viper.SetDefault("Scanner.StartupMaxElapsedTime", "2m")
	viper.SetDefault("Scanner.StartupMaxInterval", "10s")
}
