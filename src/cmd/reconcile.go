package cmd

import (
	"errors"

	"github.com/warp-contracts/cashback-scanner/src/reconcile"
	"github.com/warp-contracts/cashback-scanner/src/settlement"
	"github.com/warp-contracts/cashback-scanner/src/utils/eth"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"
	"github.com/warp-contracts/cashback-scanner/src/utils/store"

	"github.com/spf13/cobra"
)

var (
	markFailedHash string
	markReason     string
	settleHash     string
)

func init() {
	reconcileCmd.Flags().StringVar(&markFailedHash, "mark-failed", "", "hash of a stale record to close as failed")
	reconcileCmd.Flags().StringVar(&markReason, "reason", "", "reason stored with --mark-failed")
	reconcileCmd.Flags().StringVar(&settleHash, "settle", "", "hash of a stale record to pay, verify there's no payout on chain first")
	reconcileCmd.MarkFlagsMutuallyExclusive("mark-failed", "settle")
	RootCmd.AddCommand(reconcileCmd)
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "List records needing manual attention, optionally settle or close one of them",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		db, err := model.NewConnection(applicationCtx, conf, "reconcile")
		if err != nil {
			return
		}
		store := store.NewStore(db)

		reconciler := reconcile.NewReconciler(conf).
			WithStore(store)

		switch {
		case markFailedHash != "":
			return reconciler.MarkFailed(applicationCtx, markFailedHash, markReason)
		case settleHash != "":
			var ledger *eth.Ledger
			ledger, err = eth.NewLedger(applicationCtx, &conf.Ledger)
			if err != nil {
				return
			}
			defer ledger.Close()

			var treasury *eth.Treasury
			treasury, err = eth.NewTreasury(ledger, &conf.Settlement)
			if err != nil {
				return
			}

			reconciler.WithSettler(settlement.NewExecutor(&conf.Settlement, store, treasury))

			var outcome *settlement.Outcome
			outcome, err = reconciler.Settle(applicationCtx, settleHash)
			if outcome != nil {
				err = errors.Join(err, printJSON(outcome))
			}
			return
		}

		report, err := reconciler.Report(applicationCtx)
		if err != nil {
			return
		}
		return printJSON(report)
	},
}
