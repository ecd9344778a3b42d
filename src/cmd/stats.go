package cmd

import (
	"github.com/warp-contracts/cashback-scanner/src/utils/model"
	"github.com/warp-contracts/cashback-scanner/src/utils/store"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate statistics of the scanner",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		db, err := model.NewConnection(applicationCtx, conf, "stats")
		if err != nil {
			return
		}

		stats, err := store.NewStore(db).Stats(applicationCtx, conf.Scanner.Name)
		if err != nil {
			return
		}

		return printJSON(stats)
	},
}
