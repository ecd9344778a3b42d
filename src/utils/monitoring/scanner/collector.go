package monitor_scanner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds            *prometheus.Desc
	SecondsSinceLastSuccess *prometheus.Desc

	// Errors
	CycleFailures        *prometheus.Desc
	LatestHeightFailures *prometheus.Desc
	BlockFetchFailures   *prometheus.Desc
	BlockNotFound        *prometheus.Desc
	StoreFailures        *prometheus.Desc
	CursorMissing        *prometheus.Desc
	ReputationFailures   *prometheus.Desc
	DuplicateRaces       *prometheus.Desc
	SubmissionFailures   *prometheus.Desc
	ConfirmationTimeouts *prometheus.Desc
	ConfirmationFailures *prometheus.Desc
	StatusUpdateFailures *prometheus.Desc
	AlreadyTerminal      *prometheus.Desc
	PublishFailures      *prometheus.Desc

	// State
	LastConfirmedHeight    *prometheus.Desc
	LatestHeight           *prometheus.Desc
	CyclesStarted          *prometheus.Desc
	CyclesSucceeded        *prometheus.Desc
	CyclesDropped          *prometheus.Desc
	BlocksScanned          *prometheus.Desc
	TransactionsScanned    *prometheus.Desc
	TransactionsIgnored    *prometheus.Desc
	TransactionsDuplicated *prometheus.Desc
	TransactionsRecorded   *prometheus.Desc
	PayoutsSubmitted       *prometheus.Desc
	PayoutsConfirmed       *prometheus.Desc
	PayoutsFailed          *prometheus.Desc
	PayoutsInFlight        *prometheus.Desc
	RewardPaid             *prometheus.Desc
	MessagesPublished      *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds:            prometheus.NewDesc("up_for_seconds", "", nil, nil),
		SecondsSinceLastSuccess: prometheus.NewDesc("seconds_since_last_successful_cycle", "", nil, nil),

		// Errors
		CycleFailures:        prometheus.NewDesc("cycle_failures", "", nil, nil),
		LatestHeightFailures: prometheus.NewDesc("latest_height_failures", "", nil, nil),
		BlockFetchFailures:   prometheus.NewDesc("block_fetch_failures", "", nil, nil),
		BlockNotFound:        prometheus.NewDesc("block_not_found", "", nil, nil),
		StoreFailures:        prometheus.NewDesc("store_failures", "", nil, nil),
		CursorMissing:        prometheus.NewDesc("cursor_missing", "", nil, nil),
		ReputationFailures:   prometheus.NewDesc("reputation_failures", "", nil, nil),
		DuplicateRaces:       prometheus.NewDesc("duplicate_races", "", nil, nil),
		SubmissionFailures:   prometheus.NewDesc("submission_failures", "", nil, nil),
		ConfirmationTimeouts: prometheus.NewDesc("confirmation_timeouts", "", nil, nil),
		ConfirmationFailures: prometheus.NewDesc("confirmation_failures", "", nil, nil),
		StatusUpdateFailures: prometheus.NewDesc("status_update_failures", "", nil, nil),
		AlreadyTerminal:      prometheus.NewDesc("already_terminal", "", nil, nil),
		PublishFailures:      prometheus.NewDesc("publish_failures", "", nil, nil),

		// State
		LastConfirmedHeight:    prometheus.NewDesc("last_confirmed_height", "", nil, nil),
		LatestHeight:           prometheus.NewDesc("latest_height", "", nil, nil),
		CyclesStarted:          prometheus.NewDesc("cycles_started", "", nil, nil),
		CyclesSucceeded:        prometheus.NewDesc("cycles_succeeded", "", nil, nil),
		CyclesDropped:          prometheus.NewDesc("cycles_dropped", "", nil, nil),
		BlocksScanned:          prometheus.NewDesc("blocks_scanned", "", nil, nil),
		TransactionsScanned:    prometheus.NewDesc("transactions_scanned", "", nil, nil),
		TransactionsIgnored:    prometheus.NewDesc("transactions_ignored", "", nil, nil),
		TransactionsDuplicated: prometheus.NewDesc("transactions_duplicated", "", nil, nil),
		TransactionsRecorded:   prometheus.NewDesc("transactions_recorded", "", nil, nil),
		PayoutsSubmitted:       prometheus.NewDesc("payouts_submitted", "", nil, nil),
		PayoutsConfirmed:       prometheus.NewDesc("payouts_confirmed", "", nil, nil),
		PayoutsFailed:          prometheus.NewDesc("payouts_failed", "", nil, nil),
		PayoutsInFlight:        prometheus.NewDesc("payouts_in_flight", "", nil, nil),
		RewardPaid:             prometheus.NewDesc("reward_paid", "", nil, nil),
		MessagesPublished:      prometheus.NewDesc("messages_published", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds
	ch <- self.SecondsSinceLastSuccess

	// Errors
	ch <- self.CycleFailures
	ch <- self.LatestHeightFailures
	ch <- self.BlockFetchFailures
	ch <- self.BlockNotFound
	ch <- self.StoreFailures
	ch <- self.CursorMissing
	ch <- self.ReputationFailures
	ch <- self.DuplicateRaces
	ch <- self.SubmissionFailures
	ch <- self.ConfirmationTimeouts
	ch <- self.ConfirmationFailures
	ch <- self.StatusUpdateFailures
	ch <- self.AlreadyTerminal
	ch <- self.PublishFailures

	// State
	ch <- self.LastConfirmedHeight
	ch <- self.LatestHeight
	ch <- self.CyclesStarted
	ch <- self.CyclesSucceeded
	ch <- self.CyclesDropped
	ch <- self.BlocksScanned
	ch <- self.TransactionsScanned
	ch <- self.TransactionsIgnored
	ch <- self.TransactionsDuplicated
	ch <- self.TransactionsRecorded
	ch <- self.PayoutsSubmitted
	ch <- self.PayoutsConfirmed
	ch <- self.PayoutsFailed
	ch <- self.PayoutsInFlight
	ch <- self.RewardPaid
	ch <- self.MessagesPublished
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	report := self.monitor.GetReport()

	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(time.Now().Unix()-report.Run.State.StartTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.SecondsSinceLastSuccess, prometheus.GaugeValue, self.monitor.SinceLastSuccess(time.Now()).Seconds())

	// Errors
	ch <- prometheus.MustNewConstMetric(self.CycleFailures, prometheus.CounterValue, float64(report.Scanner.Errors.CycleFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.LatestHeightFailures, prometheus.CounterValue, float64(report.Scanner.Errors.LatestHeightFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.BlockFetchFailures, prometheus.CounterValue, float64(report.Scanner.Errors.BlockFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.BlockNotFound, prometheus.CounterValue, float64(report.Scanner.Errors.BlockNotFound.Load()))
	ch <- prometheus.MustNewConstMetric(self.StoreFailures, prometheus.CounterValue, float64(report.Scanner.Errors.StoreFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.CursorMissing, prometheus.CounterValue, float64(report.Scanner.Errors.CursorMissing.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReputationFailures, prometheus.CounterValue, float64(report.Scanner.Errors.ReputationFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.DuplicateRaces, prometheus.CounterValue, float64(report.Scanner.Errors.DuplicateRaces.Load()))
	ch <- prometheus.MustNewConstMetric(self.SubmissionFailures, prometheus.CounterValue, float64(report.Settlement.Errors.SubmissionFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ConfirmationTimeouts, prometheus.CounterValue, float64(report.Settlement.Errors.ConfirmationTimeouts.Load()))
	ch <- prometheus.MustNewConstMetric(self.ConfirmationFailures, prometheus.CounterValue, float64(report.Settlement.Errors.ConfirmationFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.StatusUpdateFailures, prometheus.CounterValue, float64(report.Settlement.Errors.StatusUpdateFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.AlreadyTerminal, prometheus.CounterValue, float64(report.Settlement.Errors.AlreadyTerminal.Load()))
	ch <- prometheus.MustNewConstMetric(self.PublishFailures, prometheus.CounterValue, float64(report.RedisPublisher.Errors.Publish.Load()))

	// State
	ch <- prometheus.MustNewConstMetric(self.LastConfirmedHeight, prometheus.GaugeValue, float64(report.Scanner.State.LastConfirmedHeight.Load()))
	ch <- prometheus.MustNewConstMetric(self.LatestHeight, prometheus.GaugeValue, float64(report.Scanner.State.LatestHeight.Load()))
	ch <- prometheus.MustNewConstMetric(self.CyclesStarted, prometheus.CounterValue, float64(report.Scanner.State.CyclesStarted.Load()))
	ch <- prometheus.MustNewConstMetric(self.CyclesSucceeded, prometheus.CounterValue, float64(report.Scanner.State.CyclesSucceeded.Load()))
	ch <- prometheus.MustNewConstMetric(self.CyclesDropped, prometheus.CounterValue, float64(report.Scanner.State.CyclesDropped.Load()))
	ch <- prometheus.MustNewConstMetric(self.BlocksScanned, prometheus.CounterValue, float64(report.Scanner.State.BlocksScanned.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsScanned, prometheus.CounterValue, float64(report.Scanner.State.TransactionsScanned.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsIgnored, prometheus.CounterValue, float64(report.Scanner.State.TransactionsIgnored.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsDuplicated, prometheus.CounterValue, float64(report.Scanner.State.TransactionsDuplicated.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsRecorded, prometheus.CounterValue, float64(report.Scanner.State.TransactionsRecorded.Load()))
	ch <- prometheus.MustNewConstMetric(self.PayoutsSubmitted, prometheus.CounterValue, float64(report.Settlement.State.PayoutsSubmitted.Load()))
	ch <- prometheus.MustNewConstMetric(self.PayoutsConfirmed, prometheus.CounterValue, float64(report.Settlement.State.PayoutsConfirmed.Load()))
	ch <- prometheus.MustNewConstMetric(self.PayoutsFailed, prometheus.CounterValue, float64(report.Settlement.State.PayoutsFailed.Load()))
	ch <- prometheus.MustNewConstMetric(self.PayoutsInFlight, prometheus.GaugeValue, float64(report.Settlement.State.PayoutsInFlight.Load()))
	ch <- prometheus.MustNewConstMetric(self.RewardPaid, prometheus.CounterValue, float64(report.Settlement.State.RewardPaid.Load()))
	ch <- prometheus.MustNewConstMetric(self.MessagesPublished, prometheus.CounterValue, float64(report.RedisPublisher.State.MessagesPublished.Load()))
}
