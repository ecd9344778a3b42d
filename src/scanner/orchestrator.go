package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/classifier"
	"github.com/warp-contracts/cashback-scanner/src/reward"
	"github.com/warp-contracts/cashback-scanner/src/settlement"
	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/eth"
	"github.com/warp-contracts/cashback-scanner/src/utils/logger"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"
	"github.com/warp-contracts/cashback-scanner/src/utils/monitoring"
	"github.com/warp-contracts/cashback-scanner/src/utils/monitoring/report"
	"github.com/warp-contracts/cashback-scanner/src/utils/task"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

type Ledger interface {
	LatestHeight(ctx context.Context) (uint64, error)
	BlockAt(ctx context.Context, height uint64) (*eth.Block, error)
}

// Part of the store used for scanning
type Store interface {
	GetCursor(ctx context.Context, name string) (*model.ScanCursor, error)
	CreateCursor(ctx context.Context, cursor *model.ScanCursor) (bool, error)
	AdvanceCursor(ctx context.Context, name string, advance *model.CursorAdvance) (*model.ScanCursor, error)
	ReconcileCursorTotals(ctx context.Context, name string) (*model.ScanCursor, error)
	ExistsRecord(ctx context.Context, hash string) (bool, error)
	InsertRecord(ctx context.Context, record *model.TransactionRecord) error
}

type Settler interface {
	IsEnabled() bool
	Settle(ctx context.Context, hash string) (*settlement.Outcome, error)
}

// Runs scan cycles: reads the cursor, processes the new range block by block and moves the cursor forward.
// Cycles never overlap, a cycle requested while another one runs is dropped.
type Orchestrator struct {
	log    *logrus.Entry
	config *config.Scanner

	state atomic.Int32

	ledger     Ledger
	store      Store
	classifier *classifier.Classifier
	engine     *reward.Engine
	reputation reward.ReputationSource
	settler    Settler
	monitor    monitoring.Monitor

	// Overridable in tests
	now func() time.Time
}

func NewOrchestrator(config *config.Scanner) (self *Orchestrator) {
	self = new(Orchestrator)
	self.log = logger.NewSublogger("orchestrator")
	self.config = config
	self.reputation = reward.NeverHighVolume{}
	self.now = func() time.Time { return time.Now().UTC() }
	self.state.Store(int32(StateIdle))
	return
}

func (self *Orchestrator) WithLedger(v Ledger) *Orchestrator {
	self.ledger = v
	return self
}

func (self *Orchestrator) WithStore(v Store) *Orchestrator {
	self.store = v
	return self
}

func (self *Orchestrator) WithClassifier(v *classifier.Classifier) *Orchestrator {
	self.classifier = v
	return self
}

func (self *Orchestrator) WithEngine(v *reward.Engine) *Orchestrator {
	self.engine = v
	return self
}

func (self *Orchestrator) WithReputation(v reward.ReputationSource) *Orchestrator {
	self.reputation = v
	return self
}

func (self *Orchestrator) WithSettler(v Settler) *Orchestrator {
	self.settler = v
	return self
}

func (self *Orchestrator) WithMonitor(v monitoring.Monitor) *Orchestrator {
	self.monitor = v
	return self
}

func (self *Orchestrator) State() State {
	return State(self.state.Load())
}

func (self *Orchestrator) scanner() *report.ScannerReport {
	return self.monitor.GetReport().Scanner
}

// Creates the cursor on the very first run, seeded BackfillWindow blocks behind the tip.
// Cursor totals lagging after a crash are brought up to the stored records.
func (self *Orchestrator) EnsureCursor(ctx context.Context) (cursor *model.ScanCursor, err error) {
	cursor, err = self.store.GetCursor(ctx, self.config.Name)
	if errors.Is(err, model.ErrCursorNotFound) {
		var latest uint64
		err = task.NewRetry().
			WithContext(ctx).
			WithMaxElapsedTime(self.config.StartupMaxElapsedTime).
			WithMaxInterval(self.config.StartupMaxInterval).
			WithOnError(func(err error, isDurationAcceptable bool) error {
				self.log.WithError(err).Warn("Failed to get latest height, retrying")
				return err
			}).
			Run(func() (err error) {
				latest, err = self.ledger.LatestHeight(ctx)
				return
			})
		if err != nil {
			return
		}

		seed := uint64(0)
		if latest > uint64(self.config.BackfillWindow) {
			seed = latest - uint64(self.config.BackfillWindow)
		}

		var created bool
		created, err = self.store.CreateCursor(ctx, &model.ScanCursor{
			Name:                self.config.Name,
			LastConfirmedHeight: seed,
			LastScanTimestamp:   self.now(),
			Active:              true,
		})
		if err != nil {
			return
		}
		if created {
			self.log.WithField("height", seed).WithField("latest", latest).Info("Cursor created")
		}
	} else if err != nil {
		return
	}

	cursor, err = self.store.ReconcileCursorTotals(ctx, self.config.Name)
	if err != nil {
		return
	}

	self.scanner().State.LastConfirmedHeight.Store(cursor.LastConfirmedHeight)
	return
}

// Runs one cycle unless another one is in progress. Returns false if the request was dropped.
func (self *Orchestrator) TryCycle(ctx context.Context) (out *CycleReport, ok bool) {
	if !self.state.CompareAndSwap(int32(StateIdle), int32(StateScanning)) {
		self.scanner().State.CyclesDropped.Inc()
		self.log.Debug("Cycle in progress, dropping request")
		return nil, false
	}
	self.scanner().State.IsScanning.Store(true)
	defer func() {
		self.scanner().State.IsScanning.Store(false)
		self.state.Store(int32(StateIdle))
	}()

	out = self.cycle(ctx)
	return out, true
}

func (self *Orchestrator) cycle(ctx context.Context) (out *CycleReport) {
	out = newCycleReport(self.now())
	log := self.log.WithField("cycle_id", out.CycleId)
	state := &self.scanner().State
	errs := &self.scanner().Errors

	state.CyclesStarted.Inc()

	defer func() {
		out.Duration = time.Since(out.StartedAt)
		if out.Err != nil {
			errs.CycleFailures.Inc()
			log.WithError(out.Err).WithField("from", out.From).Warn("Cycle aborted, cursor not advanced")
			return
		}
		state.CyclesSucceeded.Inc()
		state.LastSuccessfulCycleTimestamp.Store(time.Now().Unix())
	}()

	cursor, err := self.store.GetCursor(ctx, self.config.Name)
	if err != nil {
		if errors.Is(err, model.ErrCursorNotFound) {
			errs.CursorMissing.Inc()
			log.Error("Cursor doesn't exist, skipping cycle")
		} else {
			errs.StoreFailures.Inc()
		}
		out.Err = err
		return
	}

	latest, err := self.ledger.LatestHeight(ctx)
	if err != nil {
		errs.LatestHeightFailures.Inc()
		out.Err = err
		return
	}
	state.LatestHeight.Store(latest)

	out.From = cursor.LastConfirmedHeight + 1
	out.To = latest
	if self.config.MaxBlocksPerCycle > 0 && out.From <= out.To && out.To-out.From+1 > self.config.MaxBlocksPerCycle {
		out.To = out.From + self.config.MaxBlocksPerCycle - 1
	}
	if out.From > out.To {
		// Nothing new
		return
	}

	log = log.WithField("from", out.From).WithField("to", out.To)
	log.Debug("Scanning range")

	err = self.scanRange(ctx, out)
	if err != nil {
		out.Err = err
		self.reconcileTotals(ctx, out)
		return
	}

	// Whole range is durable, a single write moves the cursor
	cursor, err = self.store.AdvanceCursor(ctx, self.config.Name, &model.CursorAdvance{
		Height:          out.To,
		QualifyingDelta: out.Qualifying(),
		RewardPaidDelta: out.RewardPaid(),
		Timestamp:       self.now(),
	})
	if err != nil {
		errs.StoreFailures.Inc()
		out.Err = err
		self.reconcileTotals(ctx, out)
		return
	}

	out.Advanced = true
	state.LastConfirmedHeight.Store(cursor.LastConfirmedHeight)

	log.WithField("ignored", out.Count(ResultIgnored)).
		WithField("duplicate", out.Count(ResultDuplicate)).
		WithField("recorded", out.Count(ResultRecorded)).
		WithField("settled", out.Count(ResultSettled)).
		WithField("failed", out.Count(ResultSettlementFailed)).
		Info("Range processed")
	return
}

// Records stored by an aborted cycle are duplicates in the next one, so they would never reach cursor totals
func (self *Orchestrator) reconcileTotals(ctx context.Context, out *CycleReport) {
	if out.Qualifying() == 0 {
		return
	}
	_, err := self.store.ReconcileCursorTotals(context.WithoutCancel(ctx), self.config.Name)
	if err != nil {
		self.log.WithError(err).WithField("cycle_id", out.CycleId).Warn("Failed to reconcile cursor totals")
	}
}

func (self *Orchestrator) scanRange(ctx context.Context, out *CycleReport) (err error) {
	fetcher := newFetcher(ctx, self.ledger, out.From, out.To, self.config.FetchConcurrency, self.config.FetchQueueSize)
	defer fetcher.Close()

	state := &self.scanner().State
	errs := &self.scanner().Errors

	for height := out.From; height <= out.To; height++ {
		// Stop between blocks, the cursor stays where it was
		err = ctx.Err()
		if err != nil {
			return
		}

		var block *eth.Block
		block, err = fetcher.Next()
		if err != nil {
			if errors.Is(err, eth.ErrBlockNotFound) {
				errs.BlockNotFound.Inc()
			} else {
				errs.BlockFetchFailures.Inc()
			}
			return fmt.Errorf("block %d: %w", height, err)
		}

		for i := range block.Transactions {
			var result TxResult
			result, err = self.process(ctx, out.StartedAt, block, &block.Transactions[i])
			if err != nil {
				errs.StoreFailures.Inc()
				return fmt.Errorf("block %d, tx %s: %w", height, block.Transactions[i].Hash, err)
			}
			out.Results = append(out.Results, result)
		}

		state.BlocksScanned.Inc()
	}
	return
}

// Handles a single transaction. Only store failures are returned as errors, they abort the cycle.
func (self *Orchestrator) process(ctx context.Context, cycleTime time.Time, block *eth.Block, tx *eth.Transaction) (out TxResult, err error) {
	state := &self.scanner().State
	state.TransactionsScanned.Inc()

	out.Hash = tx.Hash.Hex()
	out.Height = block.Height
	log := self.log.WithField("tx_hash", out.Hash).WithField("height", block.Height)

	// Processed before, no classification and no payout
	exists, err := self.store.ExistsRecord(ctx, out.Hash)
	if err != nil {
		return
	}
	if exists {
		state.TransactionsDuplicated.Inc()
		out.Result = ResultDuplicate
		return
	}

	classification := self.classifier.Classify(tx)
	if !classification.Qualifying {
		state.TransactionsIgnored.Inc()
		out.Result = ResultIgnored
		return
	}
	out.RuleId = classification.Rule.Id

	inputs := &reward.BoostInputs{
		// Boost depends on the cycle's time, not on when the payout happens
		EvaluatedAt:      cycleTime,
		HighVolumeSender: self.isHighVolume(ctx, tx, classification.Rule),
	}

	computed, ok := self.engine.Compute(tx.Value, classification.Rule, inputs)

	record, err := newRecord(block, tx, &classification, &computed, ok)
	if err != nil {
		return
	}

	err = self.store.InsertRecord(ctx, record)
	if errors.Is(err, model.ErrDuplicateRecord) {
		self.scanner().Errors.DuplicateRaces.Inc()
		state.TransactionsDuplicated.Inc()
		out.Result = ResultDuplicate
		return out, nil
	}
	if err != nil {
		return
	}
	state.TransactionsRecorded.Inc()
	out.Result = ResultRecorded
	out.Reward = record.RewardAmount

	log.WithField("rule", out.RuleId).WithField("reward", record.RewardAmount).WithField("boosted", record.Boosted).Debug("Transaction recorded")

	if !record.IsPayable() || self.settler == nil || !self.settler.IsEnabled() {
		return
	}

	outcome, settleErr := self.settler.Settle(ctx, out.Hash)
	switch {
	case settleErr == nil:
		out.Result = ResultSettled
	case outcome == nil:
		// Payout wasn't attempted, record stays unrewarded for reconciliation
		out.Err = settleErr
		log.WithError(settleErr).Warn("Record left unrewarded")
	default:
		out.Result = ResultSettlementFailed
		out.Err = settleErr
	}
	return
}

// Reputation failures never block recording, the sender is treated as regular
func (self *Orchestrator) isHighVolume(ctx context.Context, tx *eth.Transaction, rule *reward.Rule) bool {
	if self.reputation == nil || !rule.Active || rule.BoostMultiplier == nil {
		return false
	}

	highVolume, err := self.reputation.IsHighVolume(ctx, tx.From.Hex())
	if err != nil {
		self.scanner().Errors.ReputationFailures.Inc()
		self.log.WithError(err).WithField("address", tx.From.Hex()).Warn("Failed to check sender reputation")
		return false
	}
	return highVolume
}

func newRecord(block *eth.Block, tx *eth.Transaction, classification *classifier.Classification, computed *reward.Reward, ok bool) (record *model.TransactionRecord, err error) {
	ruleId := classification.Rule.Id

	record = &model.TransactionRecord{
		Hash:            tx.Hash.Hex(),
		FromAddress:     strings.ToLower(tx.From.Hex()),
		EffectiveTarget: strings.ToLower(classification.Target.Hex()),
		Value:           decimal.Zero,
		BlockHeight:     block.Height,
		BlockTimestamp:  block.Timestamp,
		RuleId:          &ruleId,
		RuleName:        classification.Rule.Name,
		SwapType:        classification.SwapType,
		RewardAmount:    decimal.Zero,
		RewardRate:      decimal.Zero,
		Status:          model.SettlementStatusUnrewarded,
	}
	if tx.To != nil {
		record.ToAddress = strings.ToLower(tx.To.Hex())
	}
	if tx.Value != nil {
		record.Value = decimal.NewFromBigInt(tx.Value, 0)
	}
	if ok {
		record.RewardAmount = computed.Amount
		record.RewardRate = computed.Rate
		record.Boosted = computed.Boosted
	}

	metadata := &model.TransactionMetadata{
		GasUsed: tx.GasUsed,
		Index:   tx.Index,
		Relayed: tx.IsRelayed(),
	}
	if tx.GasPrice != nil {
		metadata.GasPrice = tx.GasPrice.String()
	}
	err = record.SetMetadata(metadata)
	return
}
