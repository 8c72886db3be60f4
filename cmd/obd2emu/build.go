package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/obdtools/obd2emu/emulation"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:          "build <parameter-file> | <CODE=v1,v2...>...",
	Short:        "Build the emulation file and group files from a saved parameter file or CODE=value arguments.",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var requests []emulation.Request
		var err error
		if len(args) == 1 && strings.HasSuffix(args[0], ".json") {
			requests, err = loadRequests(args[0])
		} else {
			requests, err = parseArgRequests(args)
		}
		if err != nil {
			return err
		}

		b, err := emulation.NewBuilder(canWidth, outputDir)
		if err != nil {
			return err
		}

		name, err := b.BuildFile(requests)
		if err != nil {
			return err
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Emulation files created, they can be found at: %s\n", name)
		}
		return nil
	},
}

// loadRequests reads a saved parameter file. Each key is a parameter code
// mapped to the values to emulate: a list of numbers (or number lists for
// multi-value parameters), a list of VINs, or a list of trouble codes. An
// empty list emulates the parameter's minimum and maximum.
func loadRequests(name string) ([]emulation.Request, error) {
	content, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "reading parameter file")
	}

	var raw map[string]json.RawMessage
	if err = json.Unmarshal(content, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing parameter file")
	}

	codes := make([]string, 0, len(raw))
	for code := range raw {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var requests []emulation.Request
	for _, code := range codes {
		switch code {
		case "VIN":
			var vins []string
			if err = json.Unmarshal(raw[code], &vins); err != nil {
				return nil, errors.Wrap(err, "parsing VIN values")
			}
			for _, vin := range vins {
				requests = append(requests, emulation.Request{Code: code, VIN: vin})
			}

		case "DTC":
			var dtcs []string
			if err = json.Unmarshal(raw[code], &dtcs); err != nil {
				return nil, errors.Wrap(err, "parsing DTC values")
			}
			requests = append(requests, emulation.Request{Code: code, DTCs: dtcs})

		default:
			values, err := parseValues(raw[code])
			if err != nil {
				return nil, errors.Wrapf(err, "parsing values for %s", code)
			}
			requests = append(requests, emulation.Request{Code: code, Values: values})
		}
	}
	return requests, nil
}

// parseArgRequests reads requests from command arguments. Each argument is a
// parameter code optionally followed by '=' and comma-separated values; the
// fields of a multi-value parameter are colon-separated within one value.
// VIN takes the number itself and DTC a comma-separated code list.
func parseArgRequests(args []string) ([]emulation.Request, error) {
	var requests []emulation.Request
	for _, arg := range args {
		code, rest, found := strings.Cut(arg, "=")
		code = strings.ToUpper(code)
		if !found || rest == "" {
			requests = append(requests, emulation.Request{Code: code})
			continue
		}

		switch code {
		case "VIN":
			requests = append(requests, emulation.Request{Code: code, VIN: rest})
		case "DTC":
			requests = append(requests, emulation.Request{Code: code, DTCs: strings.Split(rest, ",")})
		default:
			var values [][]float64
			for _, entry := range strings.Split(rest, ",") {
				var vs []float64
				for _, field := range strings.Split(entry, ":") {
					v, err := strconv.ParseFloat(field, 64)
					if err != nil {
						return nil, errors.Wrapf(err, "parsing value %q for %s", entry, code)
					}
					vs = append(vs, v)
				}
				values = append(values, vs)
			}
			requests = append(requests, emulation.Request{Code: code, Values: values})
		}
	}
	return requests, nil
}

// parseValues accepts both plain numbers and number lists so multi-value
// parameters can carry all of their values in one entry.
func parseValues(raw json.RawMessage) ([][]float64, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	values := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		var v float64
		if err := json.Unmarshal(entry, &v); err == nil {
			values = append(values, []float64{v})
			continue
		}

		var vs []float64
		if err := json.Unmarshal(entry, &vs); err != nil {
			return nil, err
		}
		values = append(values, vs)
	}
	return values, nil
}
