package cmd

import (
	"errors"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/classifier"
	"github.com/warp-contracts/cashback-scanner/src/reward"
	"github.com/warp-contracts/cashback-scanner/src/utils/eth"

	"github.com/spf13/cobra"
)

var (
	classifyFrom uint64
	classifyTo   uint64
)

var errInvalidRange = errors.New("invalid block range")

func init() {
	classifyCmd.Flags().Uint64Var(&classifyFrom, "from", 0, "first block height")
	classifyCmd.Flags().Uint64Var(&classifyTo, "to", 0, "last block height, defaults to --from")
	_ = classifyCmd.MarkFlagRequired("from")
	RootCmd.AddCommand(classifyCmd)
}

type classifyOutput struct {
	Hash            string `json:"hash"`
	Height          uint64 `json:"height"`
	From            string `json:"from"`
	EffectiveTarget string `json:"effective_target"`
	Relayed         bool   `json:"relayed"`
	SwapType        string `json:"swap_type"`
	RuleId          string `json:"rule_id"`
	Value           string `json:"value"`
	Reward          string `json:"reward"`
	Boosted         bool   `json:"boosted"`
	Clamped         bool   `json:"clamped"`
}

// Dry run, nothing is stored or paid. Reputation isn't consulted so high volume boosts never apply.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify transactions of a block range and print the rewards they would earn",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if classifyTo == 0 {
			classifyTo = classifyFrom
		}
		if classifyTo < classifyFrom {
			return errInvalidRange
		}

		rules, err := reward.NewRules(conf.Rules)
		if err != nil {
			return
		}

		registry, err := classifier.NewRegistry(rules)
		if err != nil {
			return
		}

		boost, err := reward.NewBoostPolicy(&conf.Boost)
		if err != nil {
			return
		}

		ledger, err := eth.NewLedger(applicationCtx, &conf.Ledger)
		if err != nil {
			return
		}
		defer ledger.Close()

		classify := classifier.NewClassifier(registry)
		engine := reward.NewEngine(boost)
		inputs := &reward.BoostInputs{EvaluatedAt: time.Now()}

		out := make([]classifyOutput, 0)
		for height := classifyFrom; height <= classifyTo; height++ {
			var block *eth.Block
			block, err = ledger.BlockAt(applicationCtx, height)
			if err != nil {
				return
			}

			for i := range block.Transactions {
				tx := &block.Transactions[i]
				classification := classify.Classify(tx)
				if !classification.Qualifying {
					continue
				}

				computed, _ := engine.Compute(tx.Value, classification.Rule, inputs)
				out = append(out, classifyOutput{
					Hash:            tx.Hash.Hex(),
					Height:          block.Height,
					From:            tx.From.Hex(),
					EffectiveTarget: classification.Target.Hex(),
					Relayed:         tx.IsRelayed(),
					SwapType:        string(classification.SwapType),
					RuleId:          classification.Rule.Id,
					Value:           eth.WeiToNative(tx.Value).String(),
					Reward:          computed.Amount.String(),
					Boosted:         computed.Boosted,
					Clamped:         computed.Clamped,
				})
			}
		}

		return printJSON(out)
	},
}
