package scanner

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/eth"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"
	"github.com/warp-contracts/cashback-scanner/src/utils/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type fakeLedger struct {
	mtx     sync.Mutex
	latest  uint64
	blocks  map[uint64]*eth.Block
	errors  map[uint64]error
	fetches map[uint64]int

	// Closed to let BlockAt return, nil means no waiting
	release chan struct{}
	fetched chan uint64
}

func newFakeLedger(latest uint64) *fakeLedger {
	return &fakeLedger{
		latest:  latest,
		blocks:  make(map[uint64]*eth.Block),
		errors:  make(map[uint64]error),
		fetches: make(map[uint64]int),
	}
}

func (self *fakeLedger) LatestHeight(ctx context.Context) (uint64, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.latest, nil
}

func (self *fakeLedger) BlockAt(ctx context.Context, height uint64) (*eth.Block, error) {
	self.mtx.Lock()
	self.fetches[height]++
	release, fetched := self.release, self.fetched
	self.mtx.Unlock()

	if fetched != nil {
		fetched <- height
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()
	if err, ok := self.errors[height]; ok {
		return nil, err
	}
	if height > self.latest {
		return nil, eth.ErrBlockNotFound
	}
	block, ok := self.blocks[height]
	if !ok {
		return &eth.Block{Height: height, Timestamp: time.Unix(int64(height), 0).UTC()}, nil
	}
	return block, nil
}

func (self *fakeLedger) add(height uint64, txs ...eth.Transaction) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.blocks[height] = &eth.Block{
		Height:       height,
		Timestamp:    time.Unix(int64(height), 0).UTC(),
		Transactions: txs,
	}
}

func (self *fakeLedger) fetchCount(height uint64) int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.fetches[height]
}

var nextHash int64

func transfer(from common.Address, to common.Address, native string) eth.Transaction {
	nextHash++
	return eth.Transaction{
		Hash:            common.BigToHash(big.NewInt(nextHash)),
		From:            from,
		To:              &to,
		Value:           eth.NativeToWei(decimal.RequireFromString(native)),
		EffectiveTarget: to,
		Status:          1,
		GasPrice:        big.NewInt(1000),
		GasUsed:         21000,
	}
}

// In-memory store with the same semantics as the database one
type fakeStore struct {
	mtx     sync.Mutex
	cursors map[string]*model.ScanCursor
	records map[string]*model.TransactionRecord
	order   []string

	existsErr error
	advances  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cursors: make(map[string]*model.ScanCursor),
		records: make(map[string]*model.TransactionRecord),
	}
}

func (self *fakeStore) GetCursor(ctx context.Context, name string) (*model.ScanCursor, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := self.cursors[name]
	if !ok {
		return nil, model.ErrCursorNotFound
	}
	out := *c
	return &out, nil
}

func (self *fakeStore) CreateCursor(ctx context.Context, cursor *model.ScanCursor) (bool, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if _, ok := self.cursors[cursor.Name]; ok {
		return false, nil
	}
	c := *cursor
	self.cursors[cursor.Name] = &c
	return true, nil
}

func (self *fakeStore) AdvanceCursor(ctx context.Context, name string, advance *model.CursorAdvance) (*model.ScanCursor, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := self.cursors[name]
	if !ok {
		return nil, model.ErrCursorNotFound
	}
	if advance.Height > c.LastConfirmedHeight {
		c.LastConfirmedHeight = advance.Height
	}
	c.TotalQualifying += advance.QualifyingDelta
	c.TotalRewardPaid = c.TotalRewardPaid.Add(advance.RewardPaidDelta)
	c.LastScanTimestamp = advance.Timestamp
	self.advances++
	out := *c
	return &out, nil
}

func (self *fakeStore) ReconcileCursorTotals(ctx context.Context, name string) (*model.ScanCursor, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	c, ok := self.cursors[name]
	if !ok {
		return nil, model.ErrCursorNotFound
	}
	paid := decimal.Zero
	for _, r := range self.records {
		if r.Status == model.SettlementStatusPaid {
			paid = paid.Add(r.RewardAmount)
		}
	}
	if paid.GreaterThan(c.TotalRewardPaid) {
		c.TotalRewardPaid = paid
	}
	if int64(len(self.records)) > c.TotalQualifying {
		c.TotalQualifying = int64(len(self.records))
	}
	out := *c
	return &out, nil
}

func (self *fakeStore) ExistsRecord(ctx context.Context, hash string) (bool, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.existsErr != nil {
		return false, self.existsErr
	}
	_, ok := self.records[hash]
	return ok, nil
}

func (self *fakeStore) InsertRecord(ctx context.Context, record *model.TransactionRecord) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if _, ok := self.records[record.Hash]; ok {
		return model.ErrDuplicateRecord
	}
	r := *record
	self.records[record.Hash] = &r
	self.order = append(self.order, record.Hash)
	return nil
}

func (self *fakeStore) GetRecord(ctx context.Context, hash string) (*model.TransactionRecord, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	r, ok := self.records[hash]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	out := *r
	return &out, nil
}

func (self *fakeStore) UpdateRecordStatus(ctx context.Context, hash string, update *store.StatusUpdate) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
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

func (self *fakeStore) record(hash common.Hash) *model.TransactionRecord {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	r, ok := self.records[hash.Hex()]
	if !ok {
		return nil
	}
	out := *r
	return &out
}

func (self *fakeStore) cursor(name string) *model.ScanCursor {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	out := *self.cursors[name]
	return &out
}

func (self *fakeStore) setHeight(name string, height uint64) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.cursors[name].LastConfirmedHeight = height
}

type fakePayer struct {
	mtx       sync.Mutex
	payouts   map[common.Address][]*big.Int
	count     int
	submitErr error

	// Time it takes to confirm a payout, awaiting is signalled when set
	confirmDelay time.Duration
	awaiting     chan string
}

func newFakePayer() *fakePayer {
	return &fakePayer{payouts: make(map[common.Address][]*big.Int)}
}

func (self *fakePayer) Payout(ctx context.Context, recipient common.Address, amount *big.Int) (string, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.submitErr != nil {
		return "", self.submitErr
	}
	self.count++
	self.payouts[recipient] = append(self.payouts[recipient], amount)
	return fmt.Sprintf("0xpayout%d", self.count), nil
}

func (self *fakePayer) AwaitConfirmation(ctx context.Context, ref string) error {
	self.mtx.Lock()
	delay, awaiting := self.confirmDelay, self.awaiting
	self.mtx.Unlock()

	if awaiting != nil {
		awaiting <- ref
	}
	if delay == 0 {
		return nil
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (self *fakePayer) total() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.count
}
