package scanner

import (
	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/monitoring"
	"github.com/warp-contracts/cashback-scanner/src/utils/task"

	"github.com/robfig/cron"
)

// Triggers scan cycles on a fixed interval.
// Stopping waits for the cycle in progress, including its payouts.
type Scanner struct {
	*task.Task

	orchestrator *Orchestrator
	monitor      monitoring.Monitor

	cron     *cron.Cron
	triggers chan struct{}

	// Called after each cycle
	onCycle func(*CycleReport)
}

func NewScanner(config *config.Config) (self *Scanner) {
	self = new(Scanner)

	self.triggers = make(chan struct{})
	self.cron = cron.New()
	self.cron.Schedule(cron.Every(config.Scanner.Interval), cron.FuncJob(self.trigger))

	self.Task = task.NewTask(config, "scanner").
		WithOnBeforeStart(self.ensureCursor).
		WithSubtaskFunc(self.run).
		WithStopBlocker(self.isSettling).
		WithOnStop(self.cron.Stop)

	return
}

func (self *Scanner) WithOrchestrator(v *Orchestrator) *Scanner {
	self.orchestrator = v
	return self
}

func (self *Scanner) WithMonitor(v monitoring.Monitor) *Scanner {
	self.monitor = v
	return self
}

func (self *Scanner) WithOnCycle(v func(*CycleReport)) *Scanner {
	self.onCycle = v
	return self
}

func (self *Scanner) ensureCursor() (err error) {
	cursor, err := self.orchestrator.EnsureCursor(self.Ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to initialize cursor")
		return
	}
	self.Log.WithField("height", cursor.LastConfirmedHeight).Info("Starting from cursor")
	return
}

// Submitted payouts are awaited until confirmed or failed, never abandoned on shutdown
func (self *Scanner) isSettling() bool {
	if self.monitor == nil {
		return false
	}
	return self.monitor.GetReport().Settlement.State.PayoutsInFlight.Load() > 0
}

// Timer signal. Dropped when a cycle is running.
func (self *Scanner) trigger() {
	select {
	case self.triggers <- struct{}{}:
	default:
		self.monitor.GetReport().Scanner.State.CyclesDropped.Inc()
		self.Log.Debug("Cycle in progress, dropping trigger")
	}
}

func (self *Scanner) cycle() {
	report, ok := self.orchestrator.TryCycle(self.Ctx)
	if ok && self.onCycle != nil {
		self.onCycle(report)
	}
}

func (self *Scanner) run() error {
	self.cycle()
	if self.IsStopping.Load() {
		return nil
	}
	self.cron.Start()
	defer self.cron.Stop()

	for {
		select {
		case <-self.StopChannel:
			return nil
		case <-self.triggers:
			self.cycle()
		}
	}
}
