package cmd

import (
	"github.com/warp-contracts/cashback-scanner/src/scanner"
	"github.com/warp-contracts/cashback-scanner/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan new blocks, record qualifying transactions and pay rewards",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := scanner.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished scan command")
		return
	},
}
