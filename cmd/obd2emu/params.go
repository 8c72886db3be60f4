package main

import (
	"fmt"
	"strings"

	"github.com/obdtools/obd2emu/obd2"
	"github.com/spf13/cobra"
)

func init() {
	parametersCmd.AddCommand(listParametersCmd)
	parametersCmd.AddCommand(showParameterCmd)

	rootCmd.AddCommand(parametersCmd)
}

var parametersCmd = &cobra.Command{
	Use:     "parameters",
	Aliases: []string{"params"},
	Short:   "Inspect the supported OBD2 parameters",
}

var listParametersCmd = &cobra.Command{
	Use:   "list",
	Short: "List the supported parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, code := range obd2.Codes() {
			p, err := obd2.Lookup(code)
			if err != nil {
				return err
			}

			pid := p.PID
			if pid == "" {
				pid = "--"
			}
			fmt.Fprintf(out, "%-4s  PID %-2s  %s\n", p.Code, pid, p.Name)
		}
		return nil
	},
}

var showParameterCmd = &cobra.Command{
	Use:          "show <code>",
	Short:        "Show the details of a single parameter",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := obd2.Lookup(strings.ToUpper(args[0]))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Code:\t%s\nName:\t%s\n", p.Code, p.Name)
		if p.PID != "" {
			fmt.Fprintf(out, "PID:\t%s\nBytes:\t%d\n", p.PID, p.ByteCount)
		}
		for i, f := range p.Fields {
			fmt.Fprintf(out, "Value %d:\t%g to %g %s (%s scaling, factor %g)\n",
				i+1, f.Min, f.Max, f.Unit, f.Kind, f.Factor)
		}
		return nil
	},
}
