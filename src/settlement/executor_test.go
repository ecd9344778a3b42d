package settlement

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"
	monitor_scanner "github.com/warp-contracts/cashback-scanner/src/utils/monitoring/scanner"
	"github.com/warp-contracts/cashback-scanner/src/utils/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestExecutorTestSuite(t *testing.T) {
	suite.Run(t, new(ExecutorTestSuite))
}

type fakeStore struct {
	mtx       sync.Mutex
	records   map[string]*model.TransactionRecord
	updateErr error
}

func newFakeStore(records ...*model.TransactionRecord) *fakeStore {
	s := &fakeStore{records: make(map[string]*model.TransactionRecord)}
	for _, r := range records {
		s.records[r.Hash] = r
	}
	return s
}

func (self *fakeStore) GetRecord(ctx context.Context, hash string) (*model.TransactionRecord, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	r, ok := self.records[hash]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	c := *r
	return &c, nil
}

func (self *fakeStore) UpdateRecordStatus(ctx context.Context, hash string, update *store.StatusUpdate) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.updateErr != nil {
		return self.updateErr
	}
	r, ok := self.records[hash]
	if !ok {
		return model.ErrRecordNotFound
	}
	if r.Status.IsTerminal() {
		return model.ErrRecordTerminal
	}
	r.Status = update.Status
	r.SettlementRef = update.SettlementRef
	r.SettledAt = update.SettledAt
	r.FailureReason = update.FailureReason
	return nil
}

type payout struct {
	recipient common.Address
	amount    *big.Int
}

type fakePayer struct {
	mtx       sync.Mutex
	payouts   []payout
	submitErr error
	awaitErr  error
	awaitWait time.Duration
}

func (self *fakePayer) Payout(ctx context.Context, recipient common.Address, amount *big.Int) (string, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.submitErr != nil {
		return "", self.submitErr
	}
	self.payouts = append(self.payouts, payout{recipient: recipient, amount: amount})
	return "0xref", nil
}

func (self *fakePayer) AwaitConfirmation(ctx context.Context, ref string) error {
	if self.awaitWait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(self.awaitWait):
		}
	}
	return self.awaitErr
}

func (self *fakePayer) count() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return len(self.payouts)
}

type fakeNotifier struct {
	outcomes []*Outcome
}

func (self *fakeNotifier) Notify(outcome *Outcome) {
	self.outcomes = append(self.outcomes, outcome)
}

type ExecutorTestSuite struct {
	suite.Suite
	config   *config.Settlement
	store    *fakeStore
	payer    *fakePayer
	notifier *fakeNotifier
	monitor  *monitor_scanner.Monitor
	executor *Executor
}

const (
	hash   = "0x00000000000000000000000000000000000000000000000000000000000000aa"
	sender = "0x1111111111111111111111111111111111111111"
)

func unrewarded(reward string) *model.TransactionRecord {
	return &model.TransactionRecord{
		Hash:         hash,
		FromAddress:  sender,
		RewardAmount: decimal.RequireFromString(reward),
		Status:       model.SettlementStatusUnrewarded,
	}
}

func (s *ExecutorTestSuite) SetupTest() {
	s.config = &config.Settlement{
		Enabled:             true,
		ConfirmationTimeout: time.Second,
		StoreMaxElapsedTime: 100 * time.Millisecond,
		StoreMaxInterval:    10 * time.Millisecond,
	}
	s.store = newFakeStore(unrewarded("2.5"))
	s.payer = &fakePayer{}
	s.notifier = &fakeNotifier{}
	s.monitor = monitor_scanner.NewMonitor()
	s.executor = NewExecutor(s.config, s.store, s.payer).
		WithMonitor(s.monitor).
		WithNotifier(s.notifier)
}

func (s *ExecutorTestSuite) TestPaid() {
	outcome, err := s.executor.Settle(context.Background(), hash)
	require.Nil(s.T(), err)
	require.True(s.T(), outcome.IsPaid())
	require.Equal(s.T(), "0xref", outcome.SettlementRef)

	require.Len(s.T(), s.payer.payouts, 1)
	require.Equal(s.T(), common.HexToAddress(sender), s.payer.payouts[0].recipient)
	require.Equal(s.T(), "2500000000000000000", s.payer.payouts[0].amount.String())

	record := s.store.records[hash]
	require.Equal(s.T(), model.SettlementStatusPaid, record.Status)
	require.Equal(s.T(), "0xref", record.SettlementRef)
	require.NotNil(s.T(), record.SettledAt)

	require.Len(s.T(), s.notifier.outcomes, 1)
	state := &s.monitor.GetReport().Settlement.State
	assert.Equal(s.T(), uint64(1), state.PayoutsConfirmed.Load())
	assert.Equal(s.T(), int64(0), state.PayoutsInFlight.Load())
	assert.Equal(s.T(), 2.5, state.RewardPaid.Load())
}

func (s *ExecutorTestSuite) TestNeverPaysTwice() {
	_, err := s.executor.Settle(context.Background(), hash)
	require.Nil(s.T(), err)

	outcome, err := s.executor.Settle(context.Background(), hash)
	require.ErrorIs(s.T(), err, ErrAlreadyTerminal)
	require.Nil(s.T(), outcome)
	require.Equal(s.T(), 1, s.payer.count())
}

func (s *ExecutorTestSuite) TestSubmissionFailure() {
	s.payer.submitErr = errors.New("insufficient funds")

	outcome, err := s.executor.Settle(context.Background(), hash)
	require.ErrorIs(s.T(), err, ErrSubmission)
	require.Equal(s.T(), model.SettlementStatusFailed, outcome.Status)

	record := s.store.records[hash]
	require.Equal(s.T(), model.SettlementStatusFailed, record.Status)
	require.Contains(s.T(), record.FailureReason, "insufficient funds")
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Settlement.Errors.SubmissionFailures.Load())

	// Failed records are never retried
	_, err = s.executor.Settle(context.Background(), hash)
	require.ErrorIs(s.T(), err, ErrAlreadyTerminal)
}

func (s *ExecutorTestSuite) TestConfirmationTimeout() {
	s.config.ConfirmationTimeout = 20 * time.Millisecond
	s.payer.awaitWait = time.Second

	outcome, err := s.executor.Settle(context.Background(), hash)
	require.ErrorIs(s.T(), err, ErrConfirmationTimeout)
	require.Equal(s.T(), "0xref", outcome.SettlementRef)

	record := s.store.records[hash]
	require.Equal(s.T(), model.SettlementStatusFailed, record.Status)
	require.Equal(s.T(), "0xref", record.SettlementRef)
}

func (s *ExecutorTestSuite) TestConfirmationFailure() {
	s.payer.awaitErr = errors.New("reverted")

	_, err := s.executor.Settle(context.Background(), hash)
	require.ErrorIs(s.T(), err, ErrConfirmationFailed)
	require.Equal(s.T(), model.SettlementStatusFailed, s.store.records[hash].Status)
}

func (s *ExecutorTestSuite) TestCancelledBeforeSubmission() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.executor.Settle(ctx, hash)
	require.ErrorIs(s.T(), err, context.Canceled)
	require.Equal(s.T(), 0, s.payer.count())
	require.Equal(s.T(), model.SettlementStatusUnrewarded, s.store.records[hash].Status)
}

func (s *ExecutorTestSuite) TestCancelledWhileAwaiting() {
	s.payer.awaitWait = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	// Submitted payout is awaited despite cancellation
	outcome, err := s.executor.Settle(ctx, hash)
	require.Nil(s.T(), err)
	require.True(s.T(), outcome.IsPaid())
	require.Equal(s.T(), model.SettlementStatusPaid, s.store.records[hash].Status)
}

func (s *ExecutorTestSuite) TestDisabled() {
	executor := NewExecutor(s.config, s.store, nil)
	require.False(s.T(), executor.IsEnabled())

	_, err := executor.Settle(context.Background(), hash)
	require.ErrorIs(s.T(), err, ErrDisabled)

	s.config.Enabled = false
	_, err = s.executor.Settle(context.Background(), hash)
	require.ErrorIs(s.T(), err, ErrDisabled)
	require.Equal(s.T(), 0, s.payer.count())
}

func (s *ExecutorTestSuite) TestZeroReward() {
	s.store.records[hash].RewardAmount = decimal.Zero

	_, err := s.executor.Settle(context.Background(), hash)
	require.ErrorIs(s.T(), err, ErrNotPayable)
	require.Equal(s.T(), 0, s.payer.count())
}

func (s *ExecutorTestSuite) TestStatusUpdateFailure() {
	s.store.updateErr = model.ErrTransientSource

	outcome, err := s.executor.Settle(context.Background(), hash)
	require.ErrorIs(s.T(), err, model.ErrTransientSource)
	require.True(s.T(), outcome.IsPaid())
	require.Equal(s.T(), 1, s.payer.count())
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Settlement.Errors.StatusUpdateFailures.Load())
	require.Empty(s.T(), s.notifier.outcomes)
}
