package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) TestDefaults() {
	config := Default()
	require.NotNil(s.T(), config)

	require.Equal(s.T(), "main-scanner", config.Scanner.Name)
	require.Equal(s.T(), 30*time.Second, config.Scanner.Interval)
	require.Equal(s.T(), int64(10), config.Scanner.BackfillWindow)
	require.Equal(s.T(), 1, config.Scanner.FetchConcurrency)
	require.Equal(s.T(), 120*time.Second, config.Api.HealthThreshold)
	require.Equal(s.T(), []string{"Saturday", "Sunday"}, config.Boost.Days)
	require.Len(s.T(), config.Rules, 5)
	require.Equal(s.T(), "shadow-router", config.Rules[0].Id)
	require.True(s.T(), config.Rules[0].Active)
}

func (s *ConfigTestSuite) TestEnvOverride() {
	s.T().Setenv("SCANNER_SCANNER_INTERVAL", "5s")
	s.T().Setenv("SCANNER_SCANNER_BACKFILL_WINDOW", "3")
	s.T().Setenv("SCANNER_SETTLEMENT_CONFIRMATIONS", "4")

	config, err := Load("")
	require.Nil(s.T(), err)
	require.Equal(s.T(), 5*time.Second, config.Scanner.Interval)
	require.Equal(s.T(), int64(3), config.Scanner.BackfillWindow)
	require.Equal(s.T(), uint64(4), config.Settlement.Confirmations)
}

func (s *ConfigTestSuite) TestRuleEnvOverride() {
	s.T().Setenv("SCANNER_RULES_1_BASE_RATE", "0.01")
	s.T().Setenv("SCANNER_RULES_1_ACTIVE", "false")

	config, err := Load("")
	require.Nil(s.T(), err)
	require.Equal(s.T(), "0.01", config.Rules[1].BaseRate)
	require.False(s.T(), config.Rules[1].Active)

	// Untouched fields come from defaults
	require.Equal(s.T(), "shadow-universal", config.Rules[1].Id)
	require.Equal(s.T(), "500", config.Rules[1].MaxCashback)
}

func (s *ConfigTestSuite) TestFile() {
	path := filepath.Join(s.T().TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{
		"Scanner": {"Name": "test-scanner", "Interval": "1m"},
		"Rules": [{
			"Id": "only",
			"ContractId": "0x668A3cf25392Bc6688Cb7C74690b984C05CF1aFF",
			"Name": "Only",
			"BaseRate": "0.05",
			"MaxCashback": "10",
			"MinTransaction": "1",
			"Active": true
		}]
	}`), 0o600)
	require.Nil(s.T(), err)

	config, err := Load(path)
	require.Nil(s.T(), err)
	require.Equal(s.T(), "test-scanner", config.Scanner.Name)
	require.Equal(s.T(), time.Minute, config.Scanner.Interval)
	require.Len(s.T(), config.Rules, 1)
	require.Equal(s.T(), "only", config.Rules[0].Id)
}

func (s *ConfigTestSuite) TestDuplicateContract() {
	path := filepath.Join(s.T().TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{
		"Rules": [
			{"Id": "a", "ContractId": "0x668A3cf25392Bc6688Cb7C74690b984C05CF1aFF", "BaseRate": "0.05", "Active": true},
			{"Id": "b", "ContractId": "0x668a3cf25392bc6688cb7c74690b984c05cf1aff", "BaseRate": "0.01", "Active": true}
		]
	}`), 0o600)
	require.Nil(s.T(), err)

	_, err = Load(path)
	require.NotNil(s.T(), err)
	require.Contains(s.T(), err.Error(), "already targeted")
}

func (s *ConfigTestSuite) TestInvalidValues() {
	s.T().Setenv("SCANNER_SCANNER_BACKFILL_WINDOW", "-1")
	_, err := Load("")
	require.NotNil(s.T(), err)
}

func (s *ConfigTestSuite) TestStopTimeoutCoversSettlement() {
	config := Default()
	require.Nil(s.T(), config.Validate())
	require.Greater(s.T(), config.StopTimeout, config.Settlement.ConfirmationTimeout+config.Settlement.StoreMaxElapsedTime)

	s.T().Setenv("SCANNER_STOP_TIMEOUT", "30s")
	_, err := Load("")
	require.NotNil(s.T(), err)
	require.Contains(s.T(), err.Error(), "stop timeout")

	// Nothing to wait for without payouts
	s.T().Setenv("SCANNER_SETTLEMENT_ENABLED", "false")
	config, err = Load("")
	require.Nil(s.T(), err)
	require.Equal(s.T(), 30*time.Second, config.StopTimeout)
}

func (s *ConfigTestSuite) TestInvalidRate() {
	rule := Rule{Id: "x", ContractId: "0x668A3cf25392Bc6688Cb7C74690b984C05CF1aFF", BaseRate: "1.5"}
	require.NotNil(s.T(), rule.Validate())

	rule.BaseRate = "0.5"
	require.Nil(s.T(), rule.Validate())

	rule.MinTransaction = "abc"
	require.NotNil(s.T(), rule.Validate())
}

func (s *ConfigTestSuite) TestWeekdays() {
	boost := Boost{Days: []string{"saturday", " Sunday"}, Location: "UTC"}
	days, err := boost.Weekdays()
	require.Nil(s.T(), err)
	require.Equal(s.T(), []time.Weekday{time.Saturday, time.Sunday}, days)

	boost.Days = []string{"caturday"}
	require.NotNil(s.T(), boost.Validate())
}
