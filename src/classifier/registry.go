package classifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/warp-contracts/cashback-scanner/src/reward"

	"github.com/ethereum/go-ethereum/common"
)

// Target contracts and their rules, keyed by lower case address.
// Built once at startup and only read afterwards.
type Registry struct {
	rules map[string]*reward.Rule
}

func NewRegistry(rules []*reward.Rule) (self *Registry, err error) {
	self = new(Registry)
	self.rules = make(map[string]*reward.Rule, len(rules))

	ids := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		key := rule.Key()
		if existing, ok := self.rules[key]; ok {
			return nil, fmt.Errorf("contract %s is targeted by both %s and %s", rule.ContractId.Hex(), existing.Id, rule.Id)
		}
		if _, ok := ids[rule.Id]; ok {
			return nil, fmt.Errorf("rule id %s is not unique", rule.Id)
		}
		ids[rule.Id] = struct{}{}
		self.rules[key] = rule
	}
	return
}

func (self *Registry) Lookup(address common.Address) (rule *reward.Rule, ok bool) {
	rule, ok = self.rules[strings.ToLower(address.Hex())]
	return
}

func (self *Registry) Len() int {
	return len(self.rules)
}

// Rules sorted by id
func (self *Registry) Rules() (out []*reward.Rule) {
	out = make([]*reward.Rule, 0, len(self.rules))
	for _, rule := range self.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return
}

func (self *Registry) ActiveRules() (out []*reward.Rule) {
	for _, rule := range self.Rules() {
		if rule.Active {
			out = append(out, rule)
		}
	}
	return
}
