package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/obdtools/obd2emu/emulation"
	"github.com/spf13/cobra"
)

var cycleInterval time.Duration

func init() {
	cycleCmd.Flags().DurationVar(&cycleInterval, "interval", 3*time.Second, "how often the drive cycle values are rewritten")
	rootCmd.AddCommand(cycleCmd)
}

var cycleCmd = &cobra.Command{
	Use:          "cycle",
	Short:        "Continuously rewrite the RPM and engine run time so the emulated vehicle appears to be driving.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := emulation.NewBuilder(canWidth, outputDir)
		if err != nil {
			return err
		}

		cycle := emulation.NewDriveCycle(b, cycleInterval, emulationLogger(cmd))

		if err = cycle.Prime(); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		ctx, _ = signal.NotifyContext(ctx, os.Interrupt, os.Kill)
		defer cancel()

		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "Starting drive cycle...")
		}
		if err = cycle.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}
