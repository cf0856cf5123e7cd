package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"go.tigermatt.uk/hdmiswitch"
	"go.tigermatt.uk/hdmiswitch/internal/logging"
	"go.tigermatt.uk/hdmiswitch/internal/metrics"
)

func query(cmd *cobra.Command, v *viper.Viper, device string) error {
	opts, err := loadOptions(v)
	if err != nil {
		return err
	}

	// Config treats input 0 as "query only", but an explicit -i must name
	// an input.
	if v.IsSet("input") && (opts.Input < hdmiswitch.MinInput || opts.Input > hdmiswitch.MaxInput) {
		return &hdmiswitch.ConfigError{Field: "input", Msg: fmt.Sprintf("%d out of range [%d-%d]",
			opts.Input, hdmiswitch.MinInput, hdmiswitch.MaxInput)}
	}

	cfg := opts.config(device)
	if err := cfg.Validate(); err != nil {
		return err
	}

	driver, err := opts.driver()
	if err != nil {
		return err
	}

	log := logging.New(opts.logging())
	defer log.Sync()

	x := &hdmiswitch.Exchanger{
		Driver: driver,
		Config: cfg,
		Logger: log,
	}

	if opts.Record != "" {
		f, err := os.Create(opts.Record)
		if err != nil {
			return fmt.Errorf("creating recording: %w", err)
		}
		defer f.Close()

		x.Tap = &hdmiswitch.Recorder{Dest: f}
	}

	var reg *prometheus.Registry
	if opts.MetricsFile != "" {
		reg = metrics.NewRegistry()
		x.Metrics = metrics.NewExchange(reg)
	}

	ctx, stop := listenStop(cmd.Context())
	defer stop()

	status, err := x.Run(ctx)

	if reg != nil {
		if werr := metrics.WriteTextfile(opts.MetricsFile, reg); werr != nil {
			log.Warn("writing metrics", zap.String("file", opts.MetricsFile), zap.Error(werr))
		}
	}

	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), status)
	return nil
}
