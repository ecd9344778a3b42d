package config

import (
	"time"

	"github.com/spf13/viper"
)

type Reconcile struct {
	// Unrewarded records with a positive reward older than this are reported as stale
	StaleAfter time.Duration

	// Max number of records listed
	Limit int
}

func setReconcileDefaults() {
	viper.SetDefault("Reconcile.StaleAfter", "10m")
	viper.SetDefault("Reconcile.Limit", "500")
}
