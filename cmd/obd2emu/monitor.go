package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/obdtools/obd2emu/monitor"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var lineBreakRX string
var lineBreakTX string

func init() {
	monitorCmd.PersistentFlags().StringVar(&lineBreakRX, "rx-break", "lf", "received line break (lf, cr, or crlf)")
	monitorCmd.PersistentFlags().StringVar(&lineBreakTX, "tx-break", "lf", "transmitted line break (lf, cr, or crlf)")

	monitorCmd.AddCommand(infoCmd)
	monitorCmd.AddCommand(settingsCmd)
	monitorCmd.AddCommand(rebootCmd)

	rootCmd.AddCommand(monitorCmd)
}

var monitorCmd = &cobra.Command{
	Use:          "monitor",
	Short:        "Stream the serial console of an attached device, tracking its voltage, state, and events.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		console, err := openConsole(cmd)
		if err != nil {
			return err
		}
		defer console.Close()

		ctx, cancel := context.WithCancel(context.Background())
		ctx, _ = signal.NotifyContext(ctx, os.Interrupt, os.Kill)
		defer cancel()

		out := cmd.OutOrStdout()
		status := console.Status()
		for line := range console.Listen(ctx) {
			fmt.Fprintln(out, line)

			if decoded, ok := monitor.DescribeFrame(line); ok && !quiet {
				fmt.Fprintf(out, "--- %s\n", decoded)
			}

			if s := console.Status(); s != status && !quiet {
				status = s
				fmt.Fprintf(out, "--- state: %s | vin: %s | batt: %s | event: %s\n",
					status.State, status.Vin, status.Batt, status.Event)
			}
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:          "info",
	Short:        "Request and display the device identity fields",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(cmd, (*monitor.Console).RequestInfo)
	},
}

var settingsCmd = &cobra.Command{
	Use:          "settings",
	Short:        "Request and display the device settings",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(cmd, (*monitor.Console).RequestSettings)
	},
}

var rebootCmd = &cobra.Command{
	Use:          "reboot",
	Short:        "Reboot the attached device and wait for it to come back up",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		console, err := openConsole(cmd)
		if err != nil {
			return err
		}
		defer console.Close()

		ctx, cancel := context.WithCancel(context.Background())
		ctx, _ = signal.NotifyContext(ctx, os.Interrupt, os.Kill)
		defer cancel()

		console.Listen(ctx)
		if err = console.Send(ctx, "reboot"); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !quiet {
			fmt.Fprintln(out, "Waiting for the device to reboot...")
		}
		if err = console.WaitForReboot(ctx); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintln(out, "Reboot complete")
		}
		return nil
	},
}

func runRequest(cmd *cobra.Command,
	request func(*monitor.Console, context.Context) (map[string]string, error)) error {
	console, err := openConsole(cmd)
	if err != nil {
		return err
	}
	defer console.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ctx, _ = signal.NotifyContext(ctx, os.Interrupt, os.Kill)
	defer cancel()

	console.Listen(ctx)
	values, err := request(console, ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	for _, k := range keys {
		fmt.Fprintf(out, "%s = %s\n", k, values[k])
	}
	return nil
}

func openConsole(cmd *cobra.Command) (*monitor.Console, error) {
	if port == "" {
		return nil, errors.New("the port setting is required for monitoring")
	}

	console, err := createConsole(port, monitorLogger(cmd))
	if err != nil {
		return nil, err
	}

	if console.RXLineBreak, err = parseLineBreak(lineBreakRX); err != nil {
		return nil, err
	}
	if console.TXLineBreak, err = parseLineBreak(lineBreakTX); err != nil {
		return nil, err
	}
	return console, nil
}

func parseLineBreak(s string) (monitor.LineBreak, error) {
	switch s {
	case "lf":
		return monitor.LineBreakLF, nil
	case "cr":
		return monitor.LineBreakCR, nil
	case "crlf":
		return monitor.LineBreakCRLF, nil
	}
	return "", errors.Errorf("invalid line break '%s'", s)
}
