package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Boost struct {
	// Transactions worth at least this many native units are boosted
	LargeTransactionThreshold string

	// Week days with boosted rewards
	Days []string

	// Time zone used to tell the week day
	Location string
}

func setBoostDefaults() {
	viper.SetDefault("Boost.LargeTransactionThreshold", "100")
	viper.SetDefault("Boost.Days", []string{"Saturday", "Sunday"})
	viper.SetDefault("Boost.Location", "UTC")
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(s string) (day time.Weekday, err error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		err = fmt.Errorf("unknown week day: %s", s)
	}
	return
}

func (self *Boost) Weekdays() (out []time.Weekday, err error) {
	for _, s := range self.Days {
		var day time.Weekday
		day, err = ParseWeekday(s)
		if err != nil {
			return
		}
		out = append(out, day)
	}
	return
}

func (self *Boost) Validate() (err error) {
	if self.LargeTransactionThreshold != "" {
		_, err = decimal.NewFromString(self.LargeTransactionThreshold)
		if err != nil {
			return fmt.Errorf("invalid large transaction threshold: %w", err)
		}
	}

	_, err = self.Weekdays()
	if err != nil {
		return
	}

	_, err = time.LoadLocation(self.Location)
	return
}
