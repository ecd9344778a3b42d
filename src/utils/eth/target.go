package eth

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract that was actually executed by the transaction.
//
// Contract creations resolve to the created address. Calls going through a
// relay or forwarder resolve to the single contract that emitted all of the
// receipt's logs, if it differs from the nominal recipient. In every other
// case it's the nominal recipient.
func EffectiveTarget(to *common.Address, receipt *types.Receipt) common.Address {
	if to == nil {
		if receipt == nil {
			return common.Address{}
		}
		return receipt.ContractAddress
	}

	if receipt == nil || len(receipt.Logs) == 0 {
		return *to
	}

	emitter := receipt.Logs[0].Address
	for _, log := range receipt.Logs[1:] {
		if log.Address != emitter {
			// Many contracts involved, can't tell
			return *to
		}
	}

	return emitter
}
