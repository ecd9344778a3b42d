package cmd

import (
	"github.com/warp-contracts/cashback-scanner/src/classifier"
	"github.com/warp-contracts/cashback-scanner/src/reward"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(rulesCmd)
}

type ruleOutput struct {
	Id              string `json:"id"`
	ContractId      string `json:"contract_id"`
	Name            string `json:"name"`
	BaseRate        string `json:"base_rate"`
	MaxCashback     string `json:"max_cashback,omitempty"`
	MinTransaction  string `json:"min_transaction,omitempty"`
	BoostMultiplier string `json:"boost_multiplier,omitempty"`
	Active          bool   `json:"active"`
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and print the reward rules",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		rules, err := reward.NewRules(conf.Rules)
		if err != nil {
			return
		}

		registry, err := classifier.NewRegistry(rules)
		if err != nil {
			return
		}

		out := make([]ruleOutput, 0, registry.Len())
		for _, rule := range registry.Rules() {
			r := ruleOutput{
				Id:         rule.Id,
				ContractId: rule.ContractId.Hex(),
				Name:       rule.Name,
				BaseRate:   rule.BaseRate.String(),
				Active:     rule.Active,
			}
			if rule.MaxCashback != nil {
				r.MaxCashback = rule.MaxCashback.String()
			}
			if rule.MinTransaction != nil {
				r.MinTransaction = rule.MinTransaction.String()
			}
			if rule.BoostMultiplier != nil {
				r.BoostMultiplier = rule.BoostMultiplier.String()
			}
			out = append(out, r)
		}

		return printJSON(out)
	},
}
