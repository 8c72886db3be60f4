package main

import (
	"io"
	"log"
	"os"
	"path"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/obdtools/obd2emu/emulation"
	"github.com/obdtools/obd2emu/monitor"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.bug.st/serial"
)

const portSettingName string = "port"

var configFile string
var outputDir string
var canWidth int
var port string
var quiet bool
var verbose bool

func init() {
	cobra.OnInitialize(func() {
		initConfig()
		postInitCommands(rootCmd.Commands())
	})

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.obd2emu.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "SAINT_Emulation", "directory the emulation files are written to")
	rootCmd.PersistentFlags().IntVar(&canWidth, "can", 11, "CAN identifier length (11 or 29)")
	rootCmd.PersistentFlags().StringVar(&port, portSettingName, "", "serial port to connect to. Example: /dev/ttyUSB0")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "quiet all log output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "provide verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var rootCmd = &cobra.Command{
	Use:           "obd2emu",
	Short:         "A CLI for building OBD2 emulation files for the SAINT bus monitor and monitoring attached devices.",
	SilenceErrors: true,
}

func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(path.Base(configFile))
		viper.AddConfigPath(path.Dir(configFile))
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalf("finding home directory: %v\n", err)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".obd2emu")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			if err = viper.SafeWriteConfig(); err != nil {
				log.Fatalf("creating config file: %v\n", err)
			}
		} else {
			log.Fatalf("reading config file: %v\n", err)
		}
	}
}

func postInitCommands(commands []*cobra.Command) {
	for _, cmd := range commands {
		presetRequiredFlags(cmd)
		if cmd.HasSubCommands() {
			postInitCommands(cmd.Commands())
		}
	}
}

func presetRequiredFlags(cmd *cobra.Command) {
	viper.BindPFlags(cmd.Flags())
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			cmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}

func emulationLogger(cmd *cobra.Command) emulation.Logger {
	if !verbose {
		return nil
	}
	return emulation.DefaultLogger(cmd.OutOrStdout())
}

func monitorLogger(cmd *cobra.Command) monitor.Logger {
	if !verbose {
		return monitor.NopLogger
	}
	return monitor.DefaultLogger(cmd.OutOrStdout())
}

func createConsole(port string, l monitor.Logger) (*monitor.Console, error) {
	dial := func() (io.ReadWriteCloser, error) {
		l.Debugf("opening serial port %s\n", port)
		sp, err := serial.Open(port, &serial.Mode{
			BaudRate: monitor.ConsoleBaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "opening serial port '%s'", port)
		}

		if err = sp.SetReadTimeout(3 * time.Second); err != nil {
			return nil, errors.Wrap(err, "setting serial port read timeout")
		}
		if err = sp.ResetInputBuffer(); err != nil {
			return nil, errors.Wrap(err, "resetting input buffer")
		}

		return sp, nil
	}

	sp, err := dial()
	if err != nil {
		return nil, err
	}

	console := monitor.NewConsole(sp, l)
	console.Dial = dial
	return console, nil
}
