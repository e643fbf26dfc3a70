// Package main provides the entry point for auto-brightness.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shini4i/auto-brightness/internal/adjust"
	"github.com/shini4i/auto-brightness/internal/config"
	"github.com/shini4i/auto-brightness/internal/hid"
	"github.com/shini4i/auto-brightness/internal/udev"
	"github.com/shini4i/auto-brightness/internal/xrandr"
)

var (
	verbose    bool
	quiet      bool
	force      bool
	configPath string

	rootCmd = &cobra.Command{
		Use:   "auto-brightness",
		Short: "Automatically adjust the display brightness of Linux displays",
		Long: `auto-brightness dims displays at night and brightens them during the day,
based on the sunrise and sunset at the configured location.

If the system booted less than five minutes ago the brightness is adjusted in
a single step. After five minutes of uptime the brightness is adjusted in steps
of 10% (unless --force is given), so running it periodically from a timer
fades brightness gradually.

Supported displays are backlights under /sys/class/backlight (optionally
written through systemd-logind), any X11 output through xrandr's software
brightness and Apple Studio Displays over USB HID.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(verbose, quiet)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List displays whose brightness can be controlled",
		RunE: func(cmd *cobra.Command, args []string) error {
			return list(cmd.OutOrStdout())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: system and user configuration)")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "Adjust the brightness in one step regardless of uptime")
	rootCmd.AddCommand(listCmd)
}

// configureLogging sets the global log level. Verbose wins over quiet.
func configureLogging(verbose, quiet bool) zerolog.Level {
	level := zerolog.InfoLevel
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return level
}

func configPaths() []string {
	if configPath != "" {
		return []string{configPath}
	}
	return config.DefaultPaths()
}

func run() error {
	cfg, err := config.Load(configPaths()...)
	if err != nil {
		return err
	}

	step, err := adjust.StepFor(force, adjust.Uptime)
	if err != nil {
		return err
	}

	displays, err := adjust.Build(cfg, adjust.Environment{})
	if err != nil {
		return err
	}
	defer func() {
		if err := displays.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to release displays")
		}
	}()

	result, err := adjust.Run(adjust.Options{
		Location:        cfg.SolarLocation(),
		Step:            step,
		Displays:        displays.Steppers(),
		ContinueOnError: cfg.ContinueOnError,
	})
	for _, o := range result.Outcomes {
		log.Debug().
			Str("display", o.Name).
			Bool("changed", o.Changed).
			AnErr("error", o.Err).
			Msg("Display adjusted")
	}
	return err
}

func list(w io.Writer) error {
	backlights, err := udev.NewDiscoverer().Backlights()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to discover backlight devices")
	}
	outputs, err := xrandr.Outputs(xrandr.ExecRunner{})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to query xrandr outputs")
	}
	displays, err := hid.EnumerateDisplays()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to enumerate Studio Displays")
	}
	return writeListing(w, backlights, outputs, displays)
}

// writeListing prints discovered displays as configuration snippets.
func writeListing(w io.Writer, backlights []udev.Device, outputs []xrandr.Output, displays []hid.DeviceInfo) error {
	var err error
	printf := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("# Backlights (sys-directory)\n")
	for _, b := range backlights {
		printf("%s\t%s\n", b.Name, b.Directory)
	}
	printf("\n# xrandr outputs (output-name)\n")
	for _, o := range outputs {
		if o.HasBrightness {
			printf("%s\tbrightness %.2f\n", o.Name, o.Brightness)
		} else {
			printf("%s\n", o.Name)
		}
	}
	printf("\n# Studio Displays (serial)\n")
	for _, d := range displays {
		printf("%s\t%s\n", d.Serial, d.Product)
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Failed to adjust display brightness")
	}
}
