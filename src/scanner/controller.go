package scanner

import (
	"errors"

	"github.com/warp-contracts/cashback-scanner/src/api"
	"github.com/warp-contracts/cashback-scanner/src/classifier"
	"github.com/warp-contracts/cashback-scanner/src/reward"
	"github.com/warp-contracts/cashback-scanner/src/settlement"
	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/eth"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"
	"github.com/warp-contracts/cashback-scanner/src/utils/monitoring"
	monitor_scanner "github.com/warp-contracts/cashback-scanner/src/utils/monitoring/scanner"
	"github.com/warp-contracts/cashback-scanner/src/utils/store"
	"github.com/warp-contracts/cashback-scanner/src/utils/task"
)

type Controller struct {
	*task.Task
}

// Main class that orchestrates the scanner.
// Sets up scanning, settlement, the read API and monitoring.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "controller")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "scanner")
	if err != nil {
		return
	}
	store := store.NewStore(db)

	// Monitoring
	monitor := monitor_scanner.NewMonitor().
		WithHealthThreshold(config.Api.HealthThreshold)

	// Ledger client
	ledger, err := eth.NewLedger(self.Ctx, &config.Ledger)
	if err != nil {
		self.Log.WithError(err).Error("Failed to connect to the ledger")
		return
	}

	// Rules loaded once, read-only afterwards
	rules, err := reward.NewRules(config.Rules)
	if err != nil {
		return
	}
	registry, err := classifier.NewRegistry(rules)
	if err != nil {
		return
	}
	boost, err := reward.NewBoostPolicy(&config.Boost)
	if err != nil {
		return
	}

	// Payouts. Without a treasury transactions are only detected and recorded.
	var treasury *eth.Treasury
	if config.Settlement.Enabled {
		treasury, err = eth.NewTreasury(ledger, &config.Settlement)
		if errors.Is(err, eth.ErrTreasuryNotConfigured) {
			self.Log.WithError(err).Warn("Settlement disabled, rewards will be recorded but not paid")
			treasury, err = nil, nil
		} else if err != nil {
			return
		}
	}

	var payer settlement.Payer
	if treasury != nil {
		payer = treasury
	}

	executor := settlement.NewExecutor(&config.Settlement, store, payer).
		WithMonitor(monitor)

	// Redis connection is only opened when the notifier starts
	notifier := settlement.NewNotifier(config).
		WithMonitor(monitor)
	if config.Notifier.Enabled {
		executor.WithNotifier(notifier)
	}

	orchestrator := NewOrchestrator(&config.Scanner).
		WithLedger(ledger).
		WithStore(store).
		WithClassifier(classifier.NewClassifier(registry)).
		WithEngine(reward.NewEngine(boost)).
		WithReputation(reward.NewReputationSource(&config.Reputation)).
		WithSettler(executor).
		WithMonitor(monitor)

	scanner := NewScanner(config).
		WithOrchestrator(orchestrator).
		WithMonitor(monitor)

	// Read-only queries
	queries := api.NewApi(config).
		WithContext(self.Ctx).
		WithReader(store).
		WithRules(registry).
		WithHealth(monitor).
		WithSettlementEnabled(executor.IsEnabled())
	if executor.IsEnabled() {
		queries.WithBalance(treasury)
	}

	server := monitoring.NewServer(config).
		WithMonitor(monitor).
		WithRoutes(queries.Register)

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithSubtask(scanner.Task).
		WithConditionalSubtask(config.Notifier.Enabled, notifier.Task).
		WithOnAfterStop(ledger.Close)

	self.Log.WithField("rules", registry.Len()).
		WithField("active_rules", len(registry.ActiveRules())).
		WithField("settlement", executor.IsEnabled()).
		Info("Scanner configured")

	return
}
