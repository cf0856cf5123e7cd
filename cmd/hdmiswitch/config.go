package main

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go.tigermatt.uk/hdmiswitch"
	"go.tigermatt.uk/hdmiswitch/internal/logging"
)

// envPrefix lets every flag be set from the environment, e.g.
// HDMISWITCH_TIMEOUT=1000 or HDMISWITCH_METRICS_FILE=/var/lib/node/hdmi.prom.
const envPrefix = "HDMISWITCH"

type options struct {
	Input       int    `mapstructure:"input"`
	Retries     int    `mapstructure:"retries"`
	TimeoutMS   int    `mapstructure:"timeout"`
	Verbose     bool   `mapstructure:"verbose"`
	Driver      string `mapstructure:"driver"`
	Record      string `mapstructure:"record"`
	MetricsFile string `mapstructure:"metrics-file"`
	LogFile     string `mapstructure:"log-file"`
	Out         string `mapstructure:"out"`
}

func bindFlags(v *viper.Viper, sets ...*pflag.FlagSet) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, set := range sets {
		// Only fails for a nil set.
		_ = v.BindPFlags(set)
	}
}

// decimal is an int flag that only accepts base 10, so "010" means ten
// rather than eight.
type decimal int

func newDecimal(n int) *decimal {
	d := decimal(n)
	return &d
}

func (d *decimal) Set(s string) error {
	n, err := parseDecimal(s)
	if err != nil {
		return err
	}
	*d = decimal(n)
	return nil
}

func (d *decimal) String() string { return strconv.Itoa(int(*d)) }

// Type reports "int" so viper casts the bound value like a plain int flag.
func (d *decimal) Type() string { return "int" }

func parseDecimal(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a decimal number", s)
	}
	return n, nil
}

// decimalHook applies the same base 10 rule to integers set from the
// environment.
func decimalHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Int {
		return data, nil
	}
	return parseDecimal(reflect.ValueOf(data).String())
}

func loadOptions(v *viper.Viper) (options, error) {
	var o options
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		decimalHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&o, hook); err != nil {
		return o, usageError{err}
	}
	return o, nil
}

func (o options) config(device string) hdmiswitch.Config {
	return hdmiswitch.Config{
		Device:     device,
		MaxRetries: o.Retries,
		Timeout:    time.Duration(o.TimeoutMS) * time.Millisecond,
		Verbose:    o.Verbose,
		Input:      o.Input,
	}
}

func (o options) logging() logging.Config {
	return logging.Config{
		Verbose:    o.Verbose,
		File:       o.LogFile,
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

// driverByName is swapped out in tests.
var driverByName = hdmiswitch.DriverByName

func (o options) driver() (hdmiswitch.Driver, error) {
	d, err := driverByName(o.Driver)
	if err != nil {
		return nil, usageError{err}
	}
	return d, nil
}
