package task

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/warp-contracts/cashback-scanner/src/utils/config"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

func TestTaskTestSuite(t *testing.T) {
	suite.Run(t, new(TaskTestSuite))
}

type TaskTestSuite struct {
	suite.Suite
	config *config.Config
}

func (s *TaskTestSuite) SetupSuite() {
	s.config = config.Default()
	s.config.StopTimeout = 5 * time.Second
}

func (s *TaskTestSuite) TestPeriodicSubtask() {
	var calls atomic.Int32
	task := NewTask(s.config, "periodic").
		WithPeriodicSubtaskFunc(10*time.Millisecond, func() error {
			calls.Inc()
			return nil
		})

	require.Nil(s.T(), task.Start())
	require.Eventually(s.T(), func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	task.StopWait()
	require.NotNil(s.T(), task.CtxRunning.Err())
}

func (s *TaskTestSuite) TestHooksOrder() {
	var mtx sync.Mutex
	var order []string
	add := func(s string) {
		mtx.Lock()
		defer mtx.Unlock()
		order = append(order, s)
	}

	task := NewTask(s.config, "hooks").
		WithOnBeforeStart(func() error { add("before"); return nil }).
		WithOnStop(func() { add("stop") }).
		WithOnAfterStop(func() { add("after") })

	require.Nil(s.T(), task.Start())
	task.StopWait()

	require.Eventually(s.T(), func() bool {
		mtx.Lock()
		defer mtx.Unlock()
		return len(order) == 3
	}, time.Second, 5*time.Millisecond)
	require.Equal(s.T(), "before", order[0])
}

func (s *TaskTestSuite) TestBeforeStartError() {
	task := NewTask(s.config, "failing").
		WithOnBeforeStart(func() error { return errors.New("boom") })
	require.NotNil(s.T(), task.Start())
}

func (s *TaskTestSuite) TestWorkerPool() {
	var done atomic.Int32
	task := NewTask(s.config, "workers").WithWorkerPool(2, 1)
	require.Nil(s.T(), task.Start())

	for i := 0; i < 10; i++ {
		require.True(s.T(), task.SubmitToWorker(func() {
			time.Sleep(time.Millisecond)
			done.Inc()
		}))
	}

	require.Eventually(s.T(), func() bool { return done.Load() == 10 }, time.Second, 5*time.Millisecond)
	task.StopWait()

	require.False(s.T(), task.SubmitToWorker(func() {}))
}

func (s *TaskTestSuite) TestRetry() {
	attempts := 0
	err := NewRetry().
		WithMaxElapsedTime(time.Second).
		WithMaxInterval(time.Millisecond).
		Run(func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
	require.Nil(s.T(), err)
	require.Equal(s.T(), 3, attempts)
}

func (s *TaskTestSuite) TestRetryPermanent() {
	attempts := 0
	permanent := errors.New("permanent")
	err := NewRetry().
		WithMaxElapsedTime(time.Second).
		WithMaxInterval(time.Millisecond).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			return backoff.Permanent(err)
		}).
		Run(func() error {
			attempts++
			return permanent
		})
	require.ErrorIs(s.T(), err, permanent)
	require.Equal(s.T(), 1, attempts)
}

func (s *TaskTestSuite) TestStopWaitTimeout() {
	c := *s.config
	c.StopTimeout = 50 * time.Millisecond

	release := make(chan struct{})
	defer close(release)

	task := NewTask(&c, "stuck").
		WithSubtaskFunc(func() error {
			<-release
			return nil
		})
	require.Nil(s.T(), task.Start())

	task.StopWait()
	require.Nil(s.T(), task.CtxRunning.Err())
}

func (s *TaskTestSuite) TestStopWaitBlocked() {
	c := *s.config
	c.StopTimeout = 50 * time.Millisecond

	var busy atomic.Bool
	busy.Store(true)
	var finished atomic.Bool

	child := NewTask(&c, "child")
	child.WithStopBlocker(busy.Load).
		WithSubtaskFunc(func() error {
			<-child.StopChannel
			time.Sleep(300 * time.Millisecond)
			finished.Store(true)
			busy.Store(false)
			return nil
		})

	parent := NewTask(&c, "parent").
		WithSubtask(child)
	require.Nil(s.T(), parent.Start())

	start := time.Now()
	parent.StopWait()

	require.True(s.T(), finished.Load())
	require.NotNil(s.T(), parent.CtxRunning.Err())
	require.GreaterOrEqual(s.T(), time.Since(start), 300*time.Millisecond)
}

func (s *TaskTestSuite) TestConditionalSubtask() {
	var started atomic.Int32
	enabled := NewTask(s.config, "enabled").
		WithOnBeforeStart(func() error { started.Inc(); return nil })
	disabled := NewTask(s.config, "disabled").
		WithOnBeforeStart(func() error { started.Add(10); return nil })

	task := NewTask(s.config, "parent").
		WithConditionalSubtask(true, enabled).
		WithConditionalSubtask(false, disabled)
	require.Nil(s.T(), task.Start())
	task.StopWait()

	require.Equal(s.T(), int32(1), started.Load())
}

func (s *TaskTestSuite) TestRetryAcceptableDuration() {
	var acceptable []bool
	attempts := 0
	err := NewRetry().
		WithMaxElapsedTime(time.Second).
		WithMaxInterval(20 * time.Millisecond).
		WithAcceptableDuration(30 * time.Millisecond).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			acceptable = append(acceptable, isDurationAcceptable)
			return err
		}).
		Run(func() error {
			attempts++
			if attempts == 1 {
				return errors.New("first")
			}
			if attempts < 10 {
				time.Sleep(10 * time.Millisecond)
				return errors.New("later")
			}
			return nil
		})
	require.Nil(s.T(), err)
	require.True(s.T(), acceptable[0])
	require.False(s.T(), acceptable[len(acceptable)-1])
}
