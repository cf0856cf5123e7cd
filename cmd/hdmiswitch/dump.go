package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"go.tigermatt.uk/hdmiswitch"
)

func dump(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	defer f.Close()

	return dumpRecording(cmd.OutOrStdout(), f)
}

func dumpRecording(out io.Writer, r io.Reader) error {
	msgs := make(chan hdmiswitch.Message, 100)

	var g errgroup.Group
	g.Go(func() error { return processMsgs(out, msgs) })
	g.Go(func() error { return hdmiswitch.ReadIn(msgs, r) })

	return g.Wait()
}

func processMsgs(out io.Writer, msgs <-chan hdmiswitch.Message) error {
	g := newGrouper(out, interMessageGap)

	for msg := range msgs {
		g.add(msg)
	}
	g.flush()

	return nil
}
