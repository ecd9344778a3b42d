package eth

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// Ledger doesn't have the block (yet). Distinct from transient RPC failures.
	ErrBlockNotFound = errors.New("block not found")

	// Payout transaction was mined but reverted
	ErrPayoutReverted = errors.New("payout transaction reverted")

	// Missing key or treasury address
	ErrTreasuryNotConfigured = errors.New("treasury not configured")
)

type Block struct {
	Height       uint64
	Hash         common.Hash
	Timestamp    time.Time
	Transactions []Transaction
}

type Transaction struct {
	Hash  common.Hash
	From  common.Address
	To    *common.Address
	Value *big.Int

	// Contract actually invoked, taken from execution results
	EffectiveTarget common.Address

	// Receipt status, 1 is success
	Status   uint64
	GasUsed  uint64
	GasPrice *big.Int
	Index    uint
}

// Nominal recipient differs from the contract that was executed
func (self *Transaction) IsRelayed() bool {
	return self.To != nil && *self.To != self.EffectiveTarget
}

func (self *Transaction) Succeeded() bool {
	return self.Status == 1
}
