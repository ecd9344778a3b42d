package config

import (
	"github.com/spf13/viper"
)

type Profiler struct {
	// Are pprof endpoints registered on the REST server
	Enabled bool

	// Passed to runtime.SetBlockProfileRate when profiling is on
	BlockProfileRate int
}

func setProfilerDefaults() {
	viper.SetDefault("Profiler.Enabled", "false")
	viper.SetDefault("Profiler.BlockProfileRate", "50")
}
