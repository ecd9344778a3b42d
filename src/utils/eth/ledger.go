package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/logger"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"go.uber.org/ratelimit"
)

// Read access to the chain
type Ledger struct {
	log     *logrus.Entry
	config  *config.Ledger
	client  *ethclient.Client
	limiter ratelimit.Limiter
	chainId *big.Int
	signer  types.Signer

	// Set after the node rejected eth_getBlockReceipts
	noBlockReceipts atomic.Bool
}

func NewLedger(ctx context.Context, config *config.Ledger) (self *Ledger, err error) {
	self = new(Ledger)
	self.log = logger.NewSublogger("ledger")
	self.config = config

	if config.RequestsPerSecond > 0 {
		self.limiter = ratelimit.New(config.RequestsPerSecond)
	} else {
		self.limiter = ratelimit.NewUnlimited()
	}

	rpcClient, err := rpc.DialContext(ctx, config.Url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", config.Url, err)
	}
	self.client = ethclient.NewClient(rpcClient)

	if config.ChainId > 0 {
		self.chainId = big.NewInt(config.ChainId)
	} else {
		callCtx, cancel := self.callContext(ctx)
		defer cancel()
		self.chainId, err = self.client.ChainID(callCtx)
		if err != nil {
			return nil, self.transient("failed to get chain id", err)
		}
	}
	self.signer = types.LatestSignerForChainID(self.chainId)

	self.log.WithField("chain_id", self.chainId).WithField("url", config.Url).Info("Connected to ledger")
	return
}

func (self *Ledger) Client() *ethclient.Client {
	return self.client
}

func (self *Ledger) ChainId() *big.Int {
	return self.chainId
}

func (self *Ledger) Close() {
	self.client.Close()
}

func (self *Ledger) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	self.limiter.Take()
	if self.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, self.config.RequestTimeout)
}

func (self *Ledger) transient(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, model.ErrTransientSource, err)
}

func (self *Ledger) LatestHeight(ctx context.Context) (height uint64, err error) {
	callCtx, cancel := self.callContext(ctx)
	defer cancel()

	height, err = self.client.BlockNumber(callCtx)
	if err != nil {
		return 0, self.transient("failed to get latest height", err)
	}
	return
}

// Block with all transactions and their execution results.
// Returns ErrBlockNotFound if the ledger doesn't know the height.
func (self *Ledger) BlockAt(ctx context.Context, height uint64) (out *Block, err error) {
	callCtx, cancel := self.callContext(ctx)
	block, err := self.client.BlockByNumber(callCtx, new(big.Int).SetUint64(height))
	cancel()
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("%w: %d", ErrBlockNotFound, height)
	}
	if err != nil {
		return nil, self.transient(fmt.Sprintf("failed to get block %d", height), err)
	}

	receipts, err := self.receipts(ctx, block)
	if err != nil {
		return
	}

	out = &Block{
		Height:       block.NumberU64(),
		Hash:         block.Hash(),
		Timestamp:    time.Unix(int64(block.Time()), 0).UTC(),
		Transactions: make([]Transaction, 0, len(block.Transactions())),
	}

	for i, tx := range block.Transactions() {
		from, err := types.Sender(self.signer, tx)
		if err != nil {
			self.log.WithError(err).WithField("tx_hash", tx.Hash()).Warn("Can't recover sender, skipping transaction")
			continue
		}

		receipt := receipts[i]
		out.Transactions = append(out.Transactions, Transaction{
			Hash:            tx.Hash(),
			From:            from,
			To:              tx.To(),
			Value:           tx.Value(),
			EffectiveTarget: EffectiveTarget(tx.To(), receipt),
			Status:          receipt.Status,
			GasUsed:         receipt.GasUsed,
			GasPrice:        receipt.EffectiveGasPrice,
			Index:           uint(i),
		})
	}

	return
}

// Receipts in the same order as the block's transactions
func (self *Ledger) receipts(ctx context.Context, block *types.Block) (out []*types.Receipt, err error) {
	txs := block.Transactions()
	if len(txs) == 0 {
		return
	}

	if self.config.UseBlockReceipts && !self.noBlockReceipts.Load() {
		callCtx, cancel := self.callContext(ctx)
		out, err = self.client.BlockReceipts(callCtx, rpc.BlockNumberOrHashWithHash(block.Hash(), false))
		cancel()
		if err == nil && len(out) == len(txs) {
			return
		}

		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == -32601 {
			self.log.Warn("Node doesn't support eth_getBlockReceipts, falling back to per transaction receipts")
			self.noBlockReceipts.Store(true)
		} else if err != nil {
			return nil, self.transient(fmt.Sprintf("failed to get receipts of block %d", block.NumberU64()), err)
		}
	}

	out = make([]*types.Receipt, len(txs))
	for i, tx := range txs {
		callCtx, cancel := self.callContext(ctx)
		out[i], err = self.client.TransactionReceipt(callCtx, tx.Hash())
		cancel()
		if err != nil {
			return nil, self.transient(fmt.Sprintf("failed to get receipt of %s", tx.Hash()), err)
		}
	}
	return
}
