package settlement

import (
	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/monitoring"
	"github.com/warp-contracts/cashback-scanner/src/utils/publisher"
	"github.com/warp-contracts/cashback-scanner/src/utils/task"
)

// Publishes settlement outcomes to a Redis channel.
// Best effort, outcomes are dropped when the queue is full.
type Notifier struct {
	*task.Task

	publisher *publisher.RedisPublisher[*Outcome]
	output    chan *Outcome
}

func NewNotifier(config *config.Config) (self *Notifier) {
	self = new(Notifier)

	self.output = make(chan *Outcome, config.Redis.MaxQueueSize)

	self.publisher = publisher.NewRedisPublisher[*Outcome](config, config.Redis, "settlement-publisher").
		WithChannelName(config.Notifier.ChannelName).
		WithInputChannel(self.output)

	self.Task = task.NewTask(config, "notifier").
		WithSubtask(self.publisher.Task)

	return
}

func (self *Notifier) WithMonitor(monitor monitoring.Monitor) *Notifier {
	self.publisher.WithMonitor(monitor)
	return self
}

func (self *Notifier) Notify(outcome *Outcome) {
	select {
	case self.output <- outcome:
	default:
		self.Log.WithField("tx_hash", outcome.Hash).Warn("Notification queue full, dropping outcome")
	}
}
