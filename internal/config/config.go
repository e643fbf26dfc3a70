// SPDX-License-Identifier: GPL-3.0-only

// Package config loads the location and display definitions from TOML files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"github.com/shini4i/auto-brightness/internal/brightness"
	"github.com/shini4i/auto-brightness/internal/solar"
)

// SystemPath is the system wide configuration file.
const SystemPath = "/etc/auto-brightness.toml"

// Kind identifies the brightness backend of a display.
type Kind string

const (
	// KindSoftware uses xrandr's brightness multiplier.
	KindSoftware Kind = "xrandr"
	// KindBacklight uses /sys/class/backlight.
	KindBacklight Kind = "backlight"
	// KindStudioDisplay uses the Apple Studio Display HID interface.
	KindStudioDisplay Kind = "studio-display"
)

// AutoDirectory as sys-directory selects the first backlight device found.
const AutoDirectory = "auto"

// Error is returned when configuration cannot be loaded or is invalid.
type Error struct {
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Location is the [location] table.
type Location struct {
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`
	Elevation float64 `toml:"elevation"`
}

// Display is one [[display]] table.
type Display struct {
	Name          string   `toml:"name"`
	MinBrightness *float64 `toml:"min-brightness"`
	MaxBrightness *float64 `toml:"max-brightness"`

	// OutputName selects the xrandr backend.
	OutputName string `toml:"output-name"`

	// SysDirectory selects the backlight backend. It is a device directory,
	// the name of a backlight device found by udev, or "auto".
	SysDirectory string `toml:"sys-directory"`
	// UseLogind writes the backlight through systemd-logind instead of sysfs.
	UseLogind bool `toml:"use-logind"`

	// Serial selects the Studio Display backend; "*" picks the first display.
	Serial string `toml:"serial"`
}

// Kind returns the backend kind the display is configured for.
func (d Display) Kind() Kind {
	switch {
	case d.OutputName != "":
		return KindSoftware
	case d.SysDirectory != "":
		return KindBacklight
	case d.Serial != "":
		return KindStudioDisplay
	}
	return ""
}

// Bounds returns the configured brightness bounds, defaulting to 0-100.
func (d Display) Bounds() brightness.Bounds {
	bounds := brightness.FullRange
	if d.MinBrightness != nil {
		bounds.Min = *d.MinBrightness
	}
	if d.MaxBrightness != nil {
		bounds.Max = *d.MaxBrightness
	}
	return bounds
}

// Config is the complete configuration.
type Config struct {
	Location Location  `toml:"location"`
	Displays []Display `toml:"display"`

	// ContinueOnError keeps adjusting the remaining displays after a failure.
	ContinueOnError bool `toml:"continue-on-error"`
}

// SolarLocation converts the configured location.
func (c *Config) SolarLocation() solar.Location {
	return solar.Location{
		Latitude:  c.Location.Latitude,
		Longitude: c.Location.Longitude,
		Elevation: c.Location.Elevation,
	}
}

// DefaultPaths returns the configuration files in the order they are loaded.
// Settings in later files override earlier ones.
func DefaultPaths() []string {
	paths := []string{SystemPath}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "auto-brightness", "config.toml"))
	}
	return paths
}

// Load reads and merges the given files, skipping ones that do not exist,
// and validates the result.
func Load(paths ...string) (*Config, error) {
	cfg := &Config{}
	located := map[string]bool{}
	loaded := 0

	for _, path := range paths {
		var file Config
		meta, err := toml.DecodeFile(path, &file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug().Str("path", path).Msg("Configuration file not found")
				continue
			}
			return nil, &Error{Path: path, Msg: "failed to parse configuration", Err: err}
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, &Error{Path: path, Msg: fmt.Sprintf("unsupported option %q", undecoded[0].String())}
		}
		log.Debug().Str("path", path).Msg("Loaded configuration file")
		loaded++

		for _, key := range []string{"latitude", "longitude", "elevation"} {
			if meta.IsDefined("location", key) {
				located[key] = true
			}
		}
		if meta.IsDefined("location", "latitude") {
			cfg.Location.Latitude = file.Location.Latitude
		}
		if meta.IsDefined("location", "longitude") {
			cfg.Location.Longitude = file.Location.Longitude
		}
		if meta.IsDefined("location", "elevation") {
			cfg.Location.Elevation = file.Location.Elevation
		}
		if meta.IsDefined("display") {
			cfg.Displays = file.Displays
		}
		if meta.IsDefined("continue-on-error") {
			cfg.ContinueOnError = file.ContinueOnError
		}
	}

	if loaded == 0 {
		return nil, &Error{Msg: "no configuration files loaded, please create one of " + fmt.Sprint(paths)}
	}
	for _, key := range []string{"latitude", "longitude", "elevation"} {
		if !located[key] {
			return nil, &Error{Msg: fmt.Sprintf("you need to define the %s option in the [location] table", key)}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the location and every display definition.
func (c *Config) Validate() error {
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return &Error{Msg: fmt.Sprintf("latitude %g is out of range", c.Location.Latitude)}
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return &Error{Msg: fmt.Sprintf("longitude %g is out of range", c.Location.Longitude)}
	}
	if len(c.Displays) == 0 {
		return &Error{Msg: "you need to define one or more [[display]] tables"}
	}

	for i, d := range c.Displays {
		name := d.Name
		if name == "" {
			return &Error{Msg: fmt.Sprintf("display #%d has no name", i+1)}
		}
		set := 0
		for _, v := range []string{d.OutputName, d.SysDirectory, d.Serial} {
			if v != "" {
				set++
			}
		}
		switch {
		case set == 0:
			return &Error{Msg: fmt.Sprintf("don't know how to control brightness of display %q (set output-name, sys-directory or serial)", name)}
		case set > 1:
			return &Error{Msg: fmt.Sprintf("display %q sets more than one of output-name, sys-directory and serial", name)}
		}
		if d.UseLogind && d.Kind() != KindBacklight {
			return &Error{Msg: fmt.Sprintf("use-logind only applies to backlight displays (display %q)", name)}
		}
		if err := d.Bounds().Validate(); err != nil {
			return &Error{Msg: fmt.Sprintf("display %q", name), Err: err}
		}
	}
	return nil
}
