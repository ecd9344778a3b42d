package task

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Implement operation retrying
type Retry struct {
	ctx                context.Context
	maxElapsedTime     time.Duration
	maxInterval        time.Duration
	acceptableDuration time.Duration
	onError            func(error, bool) error

	startTime time.Time
}

func NewRetry() *Retry {
	return &Retry{
		ctx:         context.Background(),
		maxInterval: backoff.DefaultMaxInterval,
	}
}

// 0 means retrying until success or cancellation
func (self *Retry) WithMaxElapsedTime(maxElapsedTime time.Duration) *Retry {
	self.maxElapsedTime = maxElapsedTime
	return self
}

func (self *Retry) WithMaxInterval(maxInterval time.Duration) *Retry {
	self.maxInterval = maxInterval
	return self
}

// Errors happening before this duration passes are reported as acceptable
func (self *Retry) WithAcceptableDuration(v time.Duration) *Retry {
	self.acceptableDuration = v
	return self
}

func (self *Retry) WithContext(ctx context.Context) *Retry {
	self.ctx = ctx
	return self
}

// Called after each failure. Returning backoff.Permanent stops retrying.
func (self *Retry) WithOnError(v func(err error, isDurationAcceptable bool) error) *Retry {
	self.onError = v
	return self
}

func (self *Retry) Run(f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = self.maxElapsedTime
	b.MaxInterval = self.maxInterval

	self.startTime = time.Now()

	return backoff.Retry(func() error {
		err := f()
		if err == nil {
			return nil
		}

		if self.ctx.Err() != nil {
			// Cancelled, no point in retrying
			return backoff.Permanent(err)
		}

		if self.onError != nil {
			isDurationAcceptable := self.acceptableDuration == 0 || time.Since(self.startTime) < self.acceptableDuration
			err = self.onError(err, isDurationAcceptable)
		}
		return err
	}, backoff.WithContext(b, self.ctx))
}
