package scanner

import (
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/stretchr/testify/require"
)

func (s *OrchestratorTestSuite) newScanner(reports chan *CycleReport) *Scanner {
	return s.newScannerWithTimeout(reports, 5*time.Second)
}

func (s *OrchestratorTestSuite) newScannerWithTimeout(reports chan *CycleReport, stopTimeout time.Duration) *Scanner {
	c := config.Default()
	c.Scanner = *s.config
	c.StopTimeout = stopTimeout

	return NewScanner(c).
		WithOrchestrator(s.orchestrator).
		WithMonitor(s.monitor).
		WithOnCycle(func(report *CycleReport) {
			select {
			case reports <- report:
			default:
			}
		})
}

func (s *OrchestratorTestSuite) TestScannerRunsCycles() {
	s.ledger.latest = 91
	tx := transfer(alice, dex, "50")
	s.ledger.add(91, tx)

	reports := make(chan *CycleReport, 10)
	scanner := s.newScanner(reports)
	require.Nil(s.T(), scanner.Start())

	select {
	case report := <-reports:
		require.Nil(s.T(), report.Err)
		require.True(s.T(), report.Advanced)
	case <-time.After(5 * time.Second):
		s.T().Fatal("no cycle")
	}

	// Next cycle comes from the timer
	s.ledger.mtx.Lock()
	s.ledger.latest = 92
	s.ledger.mtx.Unlock()

	require.Eventually(s.T(), func() bool {
		return s.store.cursor(cursorName).LastConfirmedHeight == 92
	}, 5*time.Second, 50*time.Millisecond)

	scanner.StopWait()
	require.Equal(s.T(), StateIdle, s.orchestrator.State())
	require.Equal(s.T(), 1, s.payer.total())
}

func (s *OrchestratorTestSuite) TestScannerStopWaitsForCycle() {
	s.ledger.latest = 91
	s.ledger.release = make(chan struct{})
	s.ledger.fetched = make(chan uint64, 10)

	reports := make(chan *CycleReport, 10)
	scanner := s.newScanner(reports)
	require.Nil(s.T(), scanner.Start())

	<-s.ledger.fetched

	stopped := make(chan struct{})
	go func() {
		scanner.StopWait()
		close(stopped)
	}()

	// Cycle was cancelled and finished before the task stopped
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		s.T().Fatal("scanner didn't stop")
	}

	report := <-reports
	require.NotNil(s.T(), report.Err)
	require.Equal(s.T(), uint64(90), s.store.cursor(cursorName).LastConfirmedHeight)
}

func (s *OrchestratorTestSuite) TestScannerStopWaitsForPayoutConfirmation() {
	s.ledger.latest = 91
	tx := transfer(alice, dex, "50")
	s.ledger.add(91, tx)

	s.payer.confirmDelay = 500 * time.Millisecond
	s.payer.awaiting = make(chan string, 1)

	// Stop timeout is much shorter than the confirmation
	reports := make(chan *CycleReport, 10)
	scanner := s.newScannerWithTimeout(reports, 50*time.Millisecond)
	require.Nil(s.T(), scanner.Start())

	select {
	case <-s.payer.awaiting:
	case <-time.After(5 * time.Second):
		s.T().Fatal("payout not submitted")
	}

	start := time.Now()
	scanner.StopWait()

	require.GreaterOrEqual(s.T(), time.Since(start), 300*time.Millisecond)
	require.NotNil(s.T(), scanner.CtxRunning.Err())
	require.Equal(s.T(), int64(0), s.monitor.GetReport().Settlement.State.PayoutsInFlight.Load())

	record := s.store.record(tx.Hash)
	require.NotNil(s.T(), record)
	require.Equal(s.T(), model.SettlementStatusPaid, record.Status)
	require.Equal(s.T(), "0xpayout1", record.SettlementRef)
}
