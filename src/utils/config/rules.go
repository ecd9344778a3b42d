package config

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Reward rule as it's stored in configuration. Amounts are decimal strings, empty means not set
type Rule struct {
	// Stable identifier stored with every matched transaction
	Id string

	// Address of the target contract, matched case-insensitive
	ContractId string

	// Human readable name
	Name string

	// Fraction of the transaction value paid back
	BaseRate string

	// Upper bound of a single reward, in native units
	MaxCashback string

	// Minimal transaction value, in native units
	MinTransaction string

	// Multiplier used when a boost applies
	BoostMultiplier string

	Active bool

	Description string
}

func setRulesDefaults() {
	viper.SetDefault("Rules", []Rule{
		{
			Id:              "shadow-router",
			ContractId:      "0x1D368773735ee1E678950B7A97bcA2CafB330CDc",
			Name:            "Shadow Exchange Router",
			BaseRate:        "0.065",
			MaxCashback:     "500",
			MinTransaction:  "1",
			BoostMultiplier: "1.3",
			Active:          true,
			Description:     "Shadow Exchange swap router",
		},
		{
			Id:              "shadow-universal",
			ContractId:      "0x92643Dc4F75C374b689774160CDea09A0704a9c2",
			Name:            "Shadow Universal Router",
			BaseRate:        "0.058",
			MaxCashback:     "500",
			MinTransaction:  "1",
			BoostMultiplier: "1.25",
			Active:          true,
			Description:     "Shadow Exchange universal router",
		},
		{
			Id:              "sonicswap",
			ContractId:      "0x8885b3cfF909e129d9F8f75b196503F4F8B1A351",
			Name:            "SonicSwap Router",
			BaseRate:        "0.048",
			MaxCashback:     "200",
			MinTransaction:  "2",
			BoostMultiplier: "1.15",
			Active:          true,
			Description:     "SonicSwap router",
		},
		{
			Id:              "wagmi",
			ContractId:      "0x92cc36d66e9d739d50673d1f27929a371fb83a67",
			Name:            "WAGMI Router",
			BaseRate:        "0.042",
			MaxCashback:     "300",
			MinTransaction:  "5",
			BoostMultiplier: "1.1",
			Active:          true,
			Description:     "WAGMI swap router",
		},
		{
			Id:              "test-dex",
			ContractId:      "0x668A3cf25392Bc6688Cb7C74690b984C05CF1aFF",
			Name:            "Test DEX",
			BaseRate:        "0.08",
			MaxCashback:     "100",
			MinTransaction:  "0.1",
			BoostMultiplier: "1.5",
			Active:          true,
			Description:     "Contract used on the testnet",
		},
	})
}

func parseOptionalDecimal(name, value string) (err error) {
	if value == "" {
		return
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("%s can't be negative", name)
	}
	return
}

func (self *Rule) Validate() (err error) {
	if self.Id == "" {
		return errors.New("rule id is empty")
	}
	if !common.IsHexAddress(self.ContractId) {
		return fmt.Errorf("invalid contract address: %s", self.ContractId)
	}

	rate, err := decimal.NewFromString(self.BaseRate)
	if err != nil {
		return fmt.Errorf("invalid base rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("base rate must be in [0, 1], got %s", self.BaseRate)
	}

	err = parseOptionalDecimal("max cashback", self.MaxCashback)
	if err != nil {
		return
	}
	err = parseOptionalDecimal("min transaction", self.MinTransaction)
	if err != nil {
		return
	}
	return parseOptionalDecimal("boost multiplier", self.BoostMultiplier)
}
