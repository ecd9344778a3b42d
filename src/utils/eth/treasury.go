package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

const TreasuryABI = `[
	{"type":"function","name":"transferToWallet","stateMutability":"nonpayable","inputs":[{"name":"_studentWallet","type":"address"},{"name":"_cashback","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// Pays rewards by calling the treasury contract
type Treasury struct {
	log    *logrus.Entry
	config *config.Settlement
	ledger *Ledger

	abi      abi.ABI
	contract common.Address
	key      *ecdsa.PrivateKey
	from     common.Address

	// Serializes nonce assignment
	mtx sync.Mutex
}

func NewTreasury(ledger *Ledger, config *config.Settlement) (self *Treasury, err error) {
	if config.PrivateKey == "" || !common.IsHexAddress(config.TreasuryContract) {
		return nil, ErrTreasuryNotConfigured
	}

	self = new(Treasury)
	self.log = logger.NewSublogger("treasury")
	self.config = config
	self.ledger = ledger
	self.contract = common.HexToAddress(config.TreasuryContract)

	self.abi, err = abi.JSON(strings.NewReader(TreasuryABI))
	if err != nil {
		return
	}

	self.key, err = crypto.HexToECDSA(strings.TrimPrefix(config.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key: %w", ErrTreasuryNotConfigured, err)
	}
	self.from = crypto.PubkeyToAddress(self.key.PublicKey)

	self.log.WithField("contract", self.contract).WithField("from", self.from).Info("Treasury configured")
	return
}

func (self *Treasury) From() common.Address {
	return self.from
}

// Submits transferToWallet(recipient, amount). Returns the payout transaction hash.
// Doesn't wait for the transaction to be mined.
func (self *Treasury) Payout(ctx context.Context, recipient common.Address, amount *big.Int) (ref string, err error) {
	data, err := self.abi.Pack("transferToWallet", recipient, amount)
	if err != nil {
		return
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()

	client := self.ledger.Client()

	callCtx, cancel := self.ledger.callContext(ctx)
	nonce, err := client.PendingNonceAt(callCtx, self.from)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	callCtx, cancel = self.ledger.callContext(ctx)
	gasPrice, err := client.SuggestGasPrice(callCtx)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit := self.config.GasLimit
	if gasLimit == 0 {
		callCtx, cancel = self.ledger.callContext(ctx)
		gasLimit, err = client.EstimateGas(callCtx, ethereum.CallMsg{
			From: self.from,
			To:   &self.contract,
			Data: data,
		})
		cancel()
		if err != nil {
			return "", fmt.Errorf("failed to estimate gas: %w", err)
		}
		// Headroom for state changes between estimation and execution
		gasLimit = gasLimit * 12 / 10
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &self.contract,
		Value:    big.NewInt(0),
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(self.ledger.ChainId()), self.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign payout: %w", err)
	}

	callCtx, cancel = self.ledger.callContext(ctx)
	err = client.SendTransaction(callCtx, signedTx)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to send payout: %w", err)
	}

	ref = signedTx.Hash().Hex()
	self.log.WithField("settlement_ref", ref).WithField("recipient", recipient).WithField("amount", amount).WithField("nonce", nonce).Info("Payout sent")
	return
}

// Blocks until the payout is mined and has enough confirmations.
// Gives up when ctx is done. A reverted payout returns ErrPayoutReverted.
func (self *Treasury) AwaitConfirmation(ctx context.Context, ref string) (err error) {
	hash := common.HexToHash(ref)
	client := self.ledger.Client()

	interval := self.config.ConfirmationPollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := self.checkConfirmation(ctx, client, hash)
		if err != nil || done {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (self *Treasury) checkConfirmation(ctx context.Context, client *ethclient.Client, hash common.Hash) (done bool, err error) {
	callCtx, cancel := self.ledger.callContext(ctx)
	receipt, err := client.TransactionReceipt(callCtx, hash)
	cancel()
	if errors.Is(err, ethereum.NotFound) {
		// Not mined yet
		return false, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		self.log.WithError(err).WithField("settlement_ref", hash).Warn("Failed to get payout receipt, retrying")
		return false, nil
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return true, ErrPayoutReverted
	}

	if self.config.Confirmations <= 1 {
		return true, nil
	}

	callCtx, cancel = self.ledger.callContext(ctx)
	head, err := client.BlockNumber(callCtx)
	cancel()
	if err != nil {
		return false, nil
	}

	return head+1 >= receipt.BlockNumber.Uint64()+self.config.Confirmations, nil
}

// Funds available in the treasury, in wei
func (self *Treasury) Balance(ctx context.Context) (balance *big.Int, err error) {
	data, err := self.abi.Pack("getBalance")
	if err != nil {
		return
	}

	callCtx, cancel := self.ledger.callContext(ctx)
	defer cancel()

	out, err := self.ledger.Client().CallContract(callCtx, ethereum.CallMsg{To: &self.contract, Data: data}, nil)
	if err != nil {
		return
	}

	values, err := self.abi.Unpack("getBalance", out)
	if err != nil {
		return
	}
	if len(values) != 1 {
		return nil, errors.New("unexpected getBalance output")
	}

	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected getBalance output type")
	}
	return
}
