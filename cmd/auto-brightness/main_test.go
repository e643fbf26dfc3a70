// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shini4i/auto-brightness/internal/config"
	"github.com/shini4i/auto-brightness/internal/hid"
	"github.com/shini4i/auto-brightness/internal/udev"
	"github.com/shini4i/auto-brightness/internal/xrandr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		name     string
		verbose  bool
		quiet    bool
		expected zerolog.Level
	}{
		{name: "default", expected: zerolog.InfoLevel},
		{name: "verbose", verbose: true, expected: zerolog.DebugLevel},
		{name: "quiet", quiet: true, expected: zerolog.WarnLevel},
		{name: "verbose wins over quiet", verbose: true, quiet: true, expected: zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, configureLogging(tt.verbose, tt.quiet))
			assert.Equal(t, tt.expected, zerolog.GlobalLevel())
		})
	}
}

func TestConfigPaths(t *testing.T) {
	defer func() { configPath = "" }()

	configPath = ""
	assert.Equal(t, config.DefaultPaths(), configPaths())

	configPath = "/tmp/custom.toml"
	assert.Equal(t, []string{"/tmp/custom.toml"}, configPaths())
}

func TestWriteListing(t *testing.T) {
	var buf bytes.Buffer
	err := writeListing(&buf,
		[]udev.Device{{Name: "intel_backlight", Directory: "/sys/devices/pci0000:00/intel_backlight"}},
		[]xrandr.Output{{Name: "eDP1", Brightness: 0.8, HasBrightness: true}, {Name: "VIRTUAL1"}},
		[]hid.DeviceInfo{{Serial: "C02ABC123", Product: "Studio Display"}},
	)
	require.NoError(t, err)

	expected := "# Backlights (sys-directory)\n" +
		"intel_backlight\t/sys/devices/pci0000:00/intel_backlight\n" +
		"\n# xrandr outputs (output-name)\n" +
		"eDP1\tbrightness 0.80\n" +
		"VIRTUAL1\n" +
		"\n# Studio Displays (serial)\n" +
		"C02ABC123\tStudio Display\n"
	assert.Equal(t, expected, buf.String())
}

func TestCommandFlags(t *testing.T) {
	for _, name := range []string{"verbose", "quiet", "config"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
	assert.NotNil(t, rootCmd.Flags().Lookup("force"))

	sub, _, err := rootCmd.Find([]string{"list"})
	require.NoError(t, err)
	assert.Equal(t, "list", sub.Name())
}
