// Command hdmiswitch selects and reports the active input of an HRM-2218F
// HDMI switch attached to a serial port.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.tigermatt.uk/hdmiswitch"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// usageError is a bad command line, reported before the device is opened.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	cmd := rootCommand()
	os.Exit(run(cmd, os.Args[1:], os.Stderr))
}

func run(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintf(stderr, "Error: %s\n", err)

	code := exitCode(err)
	if code == exitUsage {
		fmt.Fprintf(stderr, "Usage: %s\n", cmd.UseLine())
	}
	return code
}

func exitCode(err error) int {
	var (
		uerr usageError
		cerr *hdmiswitch.ConfigError
	)
	if errors.As(err, &uerr) || errors.As(err, &cerr) {
		return exitUsage
	}
	return exitFailure
}

func rootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "hdmiswitch DEVICE",
		Short: "Select and report the active input of an HRM-2218F HDMI switch",
		Long: `Queries the switch on DEVICE and prints the active input (0-8) on stdout.
With -i the input is selected first. Timeouts and dropped lines are retried,
unexpected replies are not.`,
		Args:          exactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, v, args[0])
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	persistent := cmd.PersistentFlags()
	persistent.BoolP("verbose", "v", false, "Print diagnostics to stderr")
	persistent.String("driver", hdmiswitch.DefaultDriver, fmt.Sprintf("Serial driver %v", hdmiswitch.DriverNames()))
	persistent.String("log-file", "", "Also write diagnostics to this file, rotated")

	flags := cmd.Flags()
	flags.VarP(newDecimal(0), "input", "i", "Input to select before querying [1-8]")
	flags.VarP(newDecimal(hdmiswitch.DefaultMaxRetries), "retries", "r", "Retries after a timeout or dropped line [0-99]")
	flags.VarP(newDecimal(int(hdmiswitch.DefaultTimeout.Milliseconds())), "timeout", "t", "Timeout in milliseconds [10-10000]")
	flags.String("record", "", "Record every frame sent and received to FILE")
	flags.String("metrics-file", "", "Write Prometheus metrics to FILE for the textfile collector")

	cmd.AddCommand(sniffCommand(v))
	cmd.AddCommand(&cobra.Command{
		Use:  "dump FILE",
		Args: exactArgs(1),
		RunE: dump,
	})

	bindFlags(v, persistent, flags)

	return cmd
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
