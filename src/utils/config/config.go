package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const MAX_SLICE_LEN = 10

const ENV_PREFIX = "SCANNER_"

// Config stores global configuration
type Config struct {
	// Is development mode on
	IsDevelopment bool

	// REST API address. API used for monitoring, metrics and read-only queries
	RESTListenAddress string

	// Maximum time the scanner will be closing before stop is forced.
	StopTimeout time.Duration

	// Logging level
	LogLevel string

	Database   Database
	Ledger     Ledger
	Scanner    Scanner
	Settlement Settlement
	Boost      Boost
	Reputation Reputation
	Notifier   Notifier
	Redis      Redis
	Api        Api
	Reconcile  Reconcile
	Profiler   Profiler

	// Reward rules, one per target contract
	Rules []Rule
}

func setDefaults() {
	viper.SetDefault("IsDevelopment", "false")
	viper.SetDefault("RESTListenAddress", ":7777")
	viper.SetDefault("LogLevel", "DEBUG")
	viper.SetDefault("StopTimeout", "5m")

	setDatabaseDefaults()
	setLedgerDefaults()
	setScannerDefaults()
	setSettlementDefaults()
	setBoostDefaults()
	setReputationDefaults()
	setNotifierDefaults()
	setRedisDefaults()
	setApiDefaults()
	setReconcileDefaults()
	setProfilerDefaults()
	setRulesDefaults()
}

func Default() (config *Config) {
	config, _ = Load("")
	return
}

func IsIndex(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func BindEnv(path []string, val reflect.Value) {
	if val.Kind() == reflect.Slice {
		_, ok := val.Interface().([]Rule)
		if ok {
			for i := 0; i < MAX_SLICE_LEN; i++ {
				newPath := make([]string, len(path))
				copy(newPath, path)
				newPath = append(newPath, fmt.Sprintf("%d", i))
				BindEnv(newPath, reflect.ValueOf(Rule{}))
			}
		} else {
			// Slice of base types
			key := strings.ToLower(strings.Join(path, "."))
			env := ENV_PREFIX + strcase.ToScreamingSnake(strings.Join(path, "_"))
			err := viper.BindEnv(key, env)
			if err != nil {
				panic(err)
			}
		}
	} else if val.Kind() != reflect.Struct {
		// Base types
		key := path[0]
		for _, p := range path[1:] {
			if IsIndex(p) {
				key += "[" + p + "]"
			} else {
				key += "." + p
			}
		}

		env := ENV_PREFIX + strcase.ToScreamingSnake(strings.Join(path, "_"))
		err := viper.BindEnv(key, env)
		if err != nil {
			panic(err)
		}
	} else {
		// Iterates over struct fields
		for i := 0; i < val.NumField(); i++ {
			newPath := make([]string, len(path))
			copy(newPath, path)
			newPath = append(newPath, val.Type().Field(i).Name)
			BindEnv(newPath, val.Field(i))
		}
	}
}

func getSliceLength(key string) int {
	var max int
	for viperKey := range viper.AllSettings() {
		var idx int
		_, err := fmt.Sscanf(viperKey, key+"[%d]", &idx)
		if err != nil {
			continue
		}
		idx += 1
		if idx > max {
			max = idx
		}
	}
	return max
}

func defaultDecoderConfig(output interface{}) *mapstructure.DecoderConfig {
	c := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           output,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	return c
}

// Load configuration from file and env
func Load(filename string) (config *Config, err error) {
	viper.Reset()
	viper.SetConfigType("json")

	setDefaults()

	// Visits every field and registers upper snake case ENV name for it
	// Works with embedded structs
	BindEnv([]string{}, reflect.ValueOf(Config{}))

	// Empty filename means we use default values
	if filename != "" {
		var content []byte
		/* #nosec */
		content, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		err = viper.ReadConfig(bytes.NewBuffer(content))
		if err != nil {
			return nil, err
		}
	}

	config = new(Config)
	err = viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}

	err = unmarshalRules(config)
	if err != nil {
		return nil, err
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return
}

// Overlays rules set with indexed env variables (SCANNER_RULES_<i>_<FIELD>) on top of the rules from defaults and file
func unmarshalRules(config *Config) (err error) {
	length := getSliceLength("rules")
	val := reflect.ValueOf(Rule{})
	for i := 0; i < length; i++ {
		values := make(map[string]interface{})
		for j := 0; j < val.NumField(); j++ {
			name := val.Type().Field(j).Name
			v := viper.Get(fmt.Sprintf("rules[%d].%s", i, strings.ToLower(name)))
			if v != nil {
				values[name] = v
			}
		}
		if len(values) == 0 {
			continue
		}

		for len(config.Rules) <= i {
			config.Rules = append(config.Rules, Rule{Active: true})
		}

		var decoder *mapstructure.Decoder
		decoder, err = mapstructure.NewDecoder(defaultDecoderConfig(&config.Rules[i]))
		if err != nil {
			return
		}

		err = decoder.Decode(values)
		if err != nil {
			return fmt.Errorf("failed to decode rule %d: %w", i, err)
		}
	}
	return
}

// Validate checks values that would make the scanner misbehave
func (self *Config) Validate() (err error) {
	if self.Scanner.Name == "" {
		return errors.New("scanner name is empty")
	}
	if self.Scanner.Interval <= 0 {
		return errors.New("scanner interval must be positive")
	}
	if self.Scanner.BackfillWindow < 0 {
		return errors.New("backfill window can't be negative")
	}
	if self.Scanner.FetchConcurrency < 1 {
		return errors.New("fetch concurrency must be at least 1")
	}

	// Shutdown has to outlast a payout waiting for confirmation and its status update
	if self.Settlement.Enabled {
		settling := self.Settlement.ConfirmationTimeout + self.Settlement.StoreMaxElapsedTime
		if self.StopTimeout <= settling {
			return fmt.Errorf("stop timeout %s must exceed settlement confirmation timeout plus store retry time (%s)", self.StopTimeout, settling)
		}
	}

	seen := make(map[string]struct{}, len(self.Rules))
	for i, rule := range self.Rules {
		err = rule.Validate()
		if err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}

		id := strings.ToLower(rule.ContractId)
		if _, ok := seen[id]; ok {
			return fmt.Errorf("rule %d (%s): contract %s is already targeted by another rule", i, rule.Name, rule.ContractId)
		}
		seen[id] = struct{}{}
	}

	return self.Boost.Validate()
}
