package settlement

import "github.com/warp-contracts/cashback-scanner/src/utils/monitoring/report"

type reportView struct {
	state  *report.SettlementState
	errors *report.SettlementErrors
}

func (self *Executor) report(f func(r *reportView)) {
	if self.monitor == nil {
		return
	}
	r := self.monitor.GetReport().Settlement
	f(&reportView{state: &r.State, errors: &r.Errors})
}
