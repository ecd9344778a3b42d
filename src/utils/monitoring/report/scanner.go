package report

import "go.uber.org/atomic"

type ScannerErrors struct {
	CycleFailures        atomic.Uint64 `json:"cycle_failures"`
	LatestHeightFailures atomic.Uint64 `json:"latest_height_failures"`
	BlockFetchFailures   atomic.Uint64 `json:"block_fetch_failures"`
	BlockNotFound        atomic.Uint64 `json:"block_not_found"`
	StoreFailures        atomic.Uint64 `json:"store_failures"`
	CursorMissing        atomic.Uint64 `json:"cursor_missing"`
	ReputationFailures   atomic.Uint64 `json:"reputation_failures"`
	DuplicateRaces       atomic.Uint64 `json:"duplicate_races"`
}

type ScannerState struct {
	// Cursor
	LastConfirmedHeight atomic.Uint64 `json:"last_confirmed_height"`
	LatestHeight        atomic.Uint64 `json:"latest_height"`
	BlocksBehind        atomic.Int64  `json:"blocks_behind"`

	// Cycles
	IsScanning                   atomic.Bool   `json:"is_scanning"`
	CyclesStarted                atomic.Uint64 `json:"cycles_started"`
	CyclesSucceeded              atomic.Uint64 `json:"cycles_succeeded"`
	CyclesDropped                atomic.Uint64 `json:"cycles_dropped"`
	LastSuccessfulCycleTimestamp atomic.Int64  `json:"last_successful_cycle_timestamp"`
	SecondsSinceLastSuccess      atomic.Int64  `json:"seconds_since_last_success"`

	// Transactions
	BlocksScanned          atomic.Uint64 `json:"blocks_scanned"`
	TransactionsScanned    atomic.Uint64 `json:"transactions_scanned"`
	TransactionsIgnored    atomic.Uint64 `json:"transactions_ignored"`
	TransactionsDuplicated atomic.Uint64 `json:"transactions_duplicated"`
	TransactionsRecorded   atomic.Uint64 `json:"transactions_recorded"`

	// Speed
	AverageBlocksProcessedPerMinute      atomic.Float64 `json:"average_blocks_processed_per_minute"`
	AverageTransactionsRecordedPerMinute atomic.Float64 `json:"average_transactions_recorded_per_minute"`
}

type ScannerReport struct {
	State  ScannerState  `json:"state"`
	Errors ScannerErrors `json:"errors"`
}
