package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/obdtools/obd2emu/monitor"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.bug.st/serial/enumerator"
)

func init() {
	portsCmd.AddCommand(listPortsCmd)
	portsCmd.AddCommand(selectPortCmd)

	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Manage the serial port used for the device console",
}

var listPortsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the serial ports available on the host",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := availablePorts()
		if err != nil {
			return err
		}

		listPorts(cmd.OutOrStdout(), ports)
		return nil
	},
}

// listPorts prints one line per port, marking the configured one.
func listPorts(w io.Writer, ports []serialPort) {
	for i, p := range ports {
		marker := " "
		if p.PortName == port {
			marker = "*"
		}
		fmt.Fprintf(w, "%s [%d] %s", marker, i, p.PortName)
		if p.IsUSB {
			fmt.Fprintf(w, "\tUSB %s:%s %s", p.VendorID, p.ProductID, p.Product)
		}
		fmt.Fprintln(w)
	}
}

var selectPortCmd = &cobra.Command{
	Use:          "set",
	Short:        "Save the console port selection to the config file",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := availablePorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			return errors.New("no serial ports found")
		}

		out := cmd.OutOrStdout()
		listPorts(out, ports)
		fmt.Fprintf(out, "Console port (index, %d baud): ", monitor.ConsoleBaudRate)

		input, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && input == "" {
			return errors.Wrap(err, "reading the selection")
		}

		i, err := parsePortIndex(input, len(ports))
		if err != nil {
			return err
		}

		portName := ports[i].PortName
		viper.Set(portSettingName, portName)
		fmt.Fprintf(out, "Selected '%s'\n", portName)

		return viper.WriteConfig()
	},
}

// parsePortIndex parses prompt input as an index into the listed ports.
// Pressing enter without a selection is an error, not a panic.
func parsePortIndex(input string, count int) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, errors.New("no port selected")
	}

	i, err := strconv.Atoi(input)
	if err != nil {
		return 0, errors.Wrap(err, "parsing the selection as an index")
	}
	if i < 0 || i >= count {
		return 0, errors.Errorf("selection %d is out of range", i)
	}
	return i, nil
}

type serialPort struct {
	PortName  string
	Product   string
	IsUSB     bool
	VendorID  string
	ProductID string
}

// availablePorts returns the serial ports present on the current host.
func availablePorts() ([]serialPort, error) {
	list, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "enumerating serial ports")
	}

	ports := make([]serialPort, len(list))
	for i, p := range list {
		ports[i] = serialPort{
			PortName:  p.Name,
			Product:   p.Product,
			IsUSB:     p.IsUSB,
			VendorID:  p.VID,
			ProductID: p.PID,
		}
	}

	return ports, nil
}
