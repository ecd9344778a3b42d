package classifier

import (
	"math/big"
	"testing"

	"github.com/warp-contracts/cashback-scanner/src/reward"
	"github.com/warp-contracts/cashback-scanner/src/utils/config"
	"github.com/warp-contracts/cashback-scanner/src/utils/eth"
	"github.com/warp-contracts/cashback-scanner/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestClassifierTestSuite(t *testing.T) {
	suite.Run(t, new(ClassifierTestSuite))
}

type ClassifierTestSuite struct {
	suite.Suite
	registry   *Registry
	classifier *Classifier
}

var (
	shadowRouter = common.HexToAddress("0x1D368773735ee1E678950B7A97bcA2CafB330CDc")
	forwarder    = common.HexToAddress("0x000000000000000000000000000000000000f0f0")
	unknown      = common.HexToAddress("0x000000000000000000000000000000000000dead")
)

func (s *ClassifierTestSuite) SetupTest() {
	rules, err := reward.NewRules(config.Default().Rules)
	require.Nil(s.T(), err)

	s.registry, err = NewRegistry(rules)
	require.Nil(s.T(), err)
	s.classifier = NewClassifier(s.registry)
}

func tx(to *common.Address, target common.Address, value int64) *eth.Transaction {
	return &eth.Transaction{
		To:              to,
		EffectiveTarget: target,
		Value:           big.NewInt(value),
		Status:          1,
	}
}

func (s *ClassifierTestSuite) TestDirectCall() {
	out := s.classifier.Classify(tx(&shadowRouter, shadowRouter, 10))
	require.True(s.T(), out.Qualifying)
	require.Equal(s.T(), "shadow-router", out.Rule.Id)
	require.Equal(s.T(), model.SwapTypeBuy, out.SwapType)
}

func (s *ClassifierTestSuite) TestCaseInsensitive() {
	lower := common.HexToAddress("0x1d368773735ee1e678950b7a97bca2cafb330cdc")
	_, ok := s.registry.Lookup(lower)
	require.True(s.T(), ok)
}

func (s *ClassifierTestSuite) TestRelayedCallUsesEffectiveTarget() {
	out := s.classifier.Classify(tx(&forwarder, shadowRouter, 0))
	require.True(s.T(), out.Qualifying)
	require.Equal(s.T(), shadowRouter, out.Target)
	require.Equal(s.T(), model.SwapTypeTransfer, out.SwapType)

	// Unregistered relay pointing at an unregistered contract
	out = s.classifier.Classify(tx(&forwarder, unknown, 0))
	require.False(s.T(), out.Qualifying)
}

func (s *ClassifierTestSuite) TestDirectCallWithForeignLogs() {
	// Registered router called directly, its logs all come from a single token contract
	token := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	out := s.classifier.Classify(tx(&shadowRouter, token, 10))
	require.True(s.T(), out.Qualifying)
	require.Equal(s.T(), "shadow-router", out.Rule.Id)
	require.Equal(s.T(), shadowRouter, out.Target)
}

func (s *ClassifierTestSuite) TestEffectiveTargetWinsOverRecipient() {
	// Both registered, the executed contract's rule applies
	other := s.registry.Rules()[0]
	if other.ContractId == shadowRouter {
		other = s.registry.Rules()[1]
	}
	out := s.classifier.Classify(tx(&shadowRouter, other.ContractId, 10))
	require.True(s.T(), out.Qualifying)
	require.Equal(s.T(), other.Id, out.Rule.Id)
}

func (s *ClassifierTestSuite) TestNotQualifying() {
	out := s.classifier.Classify(tx(&unknown, unknown, 10))
	require.False(s.T(), out.Qualifying)
	require.Nil(s.T(), out.Rule)
}

func (s *ClassifierTestSuite) TestReverted() {
	t := tx(&shadowRouter, shadowRouter, 10)
	t.Status = 0
	require.False(s.T(), s.classifier.Classify(t).Qualifying)
}

func (s *ClassifierTestSuite) TestMissingEffectiveTarget() {
	out := s.classifier.Classify(tx(&shadowRouter, common.Address{}, 10))
	require.True(s.T(), out.Qualifying)

	out = s.classifier.Classify(tx(nil, common.Address{}, 10))
	require.False(s.T(), out.Qualifying)
}

func (s *ClassifierTestSuite) TestDuplicateContract() {
	rules, err := reward.NewRules([]config.Rule{
		{Id: "a", ContractId: shadowRouter.Hex(), BaseRate: "0.1", Active: true},
		{Id: "b", ContractId: "0x1d368773735ee1e678950b7a97bca2cafb330cdc", BaseRate: "0.1", Active: true},
	})
	require.Nil(s.T(), err)

	_, err = NewRegistry(rules)
	require.NotNil(s.T(), err)
}

func (s *ClassifierTestSuite) TestRulesSorted() {
	rules := s.registry.Rules()
	require.Len(s.T(), rules, 5)
	for i := 1; i < len(rules); i++ {
		require.Less(s.T(), rules[i-1].Id, rules[i].Id)
	}
	require.Len(s.T(), s.registry.ActiveRules(), 5)
}
