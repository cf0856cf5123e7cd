package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"go.tigermatt.uk/hdmiswitch"
	"go.tigermatt.uk/hdmiswitch/internal/logging"
)

var interMessageGap = 10 * time.Millisecond

func sniffCommand(v *viper.Viper) *cobra.Command {
	cmd := cobra.Command{
		Use:   "sniff DEVICE",
		Short: "Print everything the switch sends until interrupted",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sniff(cmd, v, args[0])
		},
	}
	cmd.Flags().DurationVar(&interMessageGap, "intermessage-gap", interMessageGap, "Gap between messages")
	cmd.Flags().String("out", "", "Record received bytes to FILE")

	bindFlags(v, cmd.Flags())

	return &cmd
}

// listenStop returns a context cancelled by the first interrupt.
func listenStop(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func outFilename() string {
	return fmt.Sprintf("%d.dat", time.Now().UTC().Unix())
}

func sniff(cmd *cobra.Command, v *viper.Viper, device string) error {
	opts, err := loadOptions(v)
	if err != nil {
		return err
	}

	driver, err := opts.driver()
	if err != nil {
		return err
	}

	log := logging.New(opts.logging())
	defer log.Sync()

	port, err := driver.Open(device)
	if err != nil {
		return &hdmiswitch.OpenError{Path: device, Err: err}
	}
	defer port.Close()

	var rec *hdmiswitch.Recorder
	if opts.Out != "" {
		name := opts.Out
		if name == "-" {
			name = outFilename()
		}

		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("creating recording: %w", err)
		}
		defer f.Close()

		log.Info("recording", zap.String("file", name))
		rec = &hdmiswitch.Recorder{Dest: f}
	}

	ctx, stop := listenStop(cmd.Context())
	defer stop()

	g := newGrouper(cmd.OutOrStdout(), interMessageGap)
	defer g.flush()

	s := hdmiswitch.Sniffer{
		Port: port,
		OnReceive: func(bs []byte) {
			msg := hdmiswitch.Message{Dir: hdmiswitch.Rx, Data: bs, Timestamp: time.Now()}
			if rec != nil {
				if err := rec.Receive(msg); err != nil {
					log.Warn("recording", zap.Error(err))
				}
			}
			g.add(msg)
		},
	}

	return s.Consume(ctx)
}

// grouper joins chunks read close together into one printed line.
type grouper struct {
	out io.Writer
	gap time.Duration

	start, last time.Time
	dir         hdmiswitch.Direction
	buf         []byte
}

func newGrouper(out io.Writer, gap time.Duration) *grouper {
	return &grouper{out: out, gap: gap}
}

func (g *grouper) add(msg hdmiswitch.Message) {
	if len(g.buf) > 0 && (msg.Dir != g.dir || msg.Timestamp.Sub(g.last) > g.gap) {
		g.flush()
	}

	if len(g.buf) == 0 {
		g.start = msg.Timestamp
		g.dir = msg.Dir
	}
	g.last = msg.Timestamp
	g.buf = append(g.buf, msg.Data...)
}

func (g *grouper) flush() {
	if len(g.buf) == 0 {
		return
	}

	fmt.Fprintf(g.out, "%s %s (%02d) % 02X\n", g.start.Format("15:04:05.000"), g.dir, len(g.buf), g.buf)
	g.buf = g.buf[:0]
}
