package scanner

import (
	"context"

	"github.com/warp-contracts/cashback-scanner/src/utils/eth"

	"github.com/gammazero/deque"
	"github.com/gammazero/workerpool"
)

type fetchResult struct {
	block *eth.Block
	err   error
}

// Downloads blocks of a range ahead of processing.
// Blocks are handed out strictly in ascending height.
type fetcher struct {
	ctx    context.Context
	cancel context.CancelFunc
	ledger Ledger

	workers *workerpool.WorkerPool
	pending *deque.Deque[chan fetchResult]
	window  int

	next uint64
	end  uint64
}

func newFetcher(ctx context.Context, ledger Ledger, start, end uint64, concurrency, window int) (self *fetcher) {
	self = new(fetcher)
	self.ctx, self.cancel = context.WithCancel(ctx)
	self.ledger = ledger
	self.next = start
	self.end = end

	if concurrency < 1 {
		concurrency = 1
	}
	if window < concurrency {
		window = concurrency
	}
	if concurrency == 1 {
		// Fetching serially, nothing to buffer
		window = 1
	}
	self.window = window

	self.workers = workerpool.New(concurrency)
	self.pending = deque.New[chan fetchResult](window)
	return
}

func (self *fetcher) fill() {
	for self.pending.Len() < self.window && self.next <= self.end {
		height := self.next
		result := make(chan fetchResult, 1)
		self.workers.Submit(func() {
			block, err := self.ledger.BlockAt(self.ctx, height)
			result <- fetchResult{block: block, err: err}
		})
		self.pending.PushBack(result)
		self.next++
	}
}

// Next block of the range. Must be called at most end-start+1 times.
func (self *fetcher) Next() (*eth.Block, error) {
	self.fill()
	if self.pending.Len() == 0 {
		return nil, eth.ErrBlockNotFound
	}
	result := <-self.pending.PopFront()
	return result.block, result.err
}

// Cancels downloads that weren't consumed
func (self *fetcher) Close() {
	self.cancel()
	self.workers.Stop()
}
