package monitor_scanner

import (
	"math"
	"net/http"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/monitoring/report"
	"github.com/warp-contracts/cashback-scanner/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize     int
	healthThreshold time.Duration

	collector *Collector

	// Processing speed
	BlocksScanned        *deque.Deque[uint64]
	TransactionsRecorded *deque.Deque[uint64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:            &report.RunReport{},
		Scanner:        &report.ScannerReport{},
		Settlement:     &report.SettlementReport{},
		RedisPublisher: &report.RedisPublisherReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())
	self.healthThreshold = 120 * time.Second

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorBlocks).
		WithPeriodicSubtaskFunc(time.Minute, self.monitorTransactions)

	return self.WithMaxHistorySize(30)
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize

	self.BlocksScanned = deque.New[uint64](self.historySize)
	self.TransactionsRecorded = deque.New[uint64](self.historySize)

	return self
}

// Health check fails when the last successful cycle is older than this
func (self *Monitor) WithHealthThreshold(v time.Duration) *Monitor {
	self.healthThreshold = v
	return self
}

func (self *Monitor) Clear() {
	self.BlocksScanned.Clear()
	self.TransactionsRecorded.Clear()
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Average growth of a counter per minute, over the history window
func (self *Monitor) speed(history *deque.Deque[uint64], loaded uint64) float64 {
	history.PushBack(loaded)
	if history.Len() > self.historySize {
		history.PopFront()
	}
	return round(float64(history.Back()-history.Front()) / float64(history.Len()))
}

// Measure block processing speed
func (self *Monitor) monitorBlocks() (err error) {
	loaded := self.Report.Scanner.State.BlocksScanned.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}
	self.Report.Scanner.State.AverageBlocksProcessedPerMinute.Store(self.speed(self.BlocksScanned, loaded))
	return
}

// Measure how fast transactions are recorded
func (self *Monitor) monitorTransactions() (err error) {
	loaded := self.Report.Scanner.State.TransactionsRecorded.Load()
	if loaded == 0 {
		return
	}
	self.Report.Scanner.State.AverageTransactionsRecordedPerMinute.Store(self.speed(self.TransactionsRecorded, loaded))
	return
}

// Time since the last successful cycle. Before the first one it's the time since start.
func (self *Monitor) SinceLastSuccess(now time.Time) time.Duration {
	last := self.Report.Scanner.State.LastSuccessfulCycleTimestamp.Load()
	if last == 0 {
		last = self.Report.Run.State.StartTimestamp.Load()
	}
	return now.Sub(time.Unix(last, 0))
}

// Unhealthy when cycles stopped succeeding, regardless of settlement failures
func (self *Monitor) IsOK() bool {
	return self.SinceLastSuccess(time.Now()) <= self.healthThreshold
}

func (self *Monitor) fill() {
	now := time.Now()
	self.Report.Run.State.UpForSeconds.Store(uint64(now.Unix() - self.Report.Run.State.StartTimestamp.Load()))
	self.Report.Scanner.State.SecondsSinceLastSuccess.Store(int64(self.SinceLastSuccess(now).Seconds()))
	self.Report.Scanner.State.BlocksBehind.Store(int64(self.Report.Scanner.State.LatestHeight.Load()) - int64(self.Report.Scanner.State.LastConfirmedHeight.Load()))
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.fill()
	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
