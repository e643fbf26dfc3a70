// SPDX-License-Identifier: GPL-3.0-only

package adjust

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shini4i/auto-brightness/internal/backlight"
	"github.com/shini4i/auto-brightness/internal/brightness"
	"github.com/shini4i/auto-brightness/internal/config"
	"github.com/shini4i/auto-brightness/internal/dbus"
	"github.com/shini4i/auto-brightness/internal/hid"
	"github.com/shini4i/auto-brightness/internal/udev"
	"github.com/shini4i/auto-brightness/internal/xrandr"
)

// LogindSession is a logind connection able to set backlight brightness.
type LogindSession interface {
	backlight.Setter
	io.Closer
}

// Environment supplies the system access used to construct controllers.
// Zero values select the real implementations.
type Environment struct {
	Xrandr        xrandr.Runner
	Discoverer    *udev.Discoverer
	ConnectLogind func() (LogindSession, error)
	OpenHID       hid.DeviceOpener
}

func (e *Environment) defaults() {
	if e.Xrandr == nil {
		e.Xrandr = xrandr.ExecRunner{}
	}
	if e.Discoverer == nil {
		e.Discoverer = udev.NewDiscoverer()
	}
	if e.ConnectLogind == nil {
		e.ConnectLogind = func() (LogindSession, error) { return dbus.ConnectSession() }
	}
}

// Displays holds the controllers built from configuration and the resources
// they keep open.
type Displays struct {
	Controllers []*brightness.Controller
	closers     []io.Closer
}

// Steppers returns the controllers as Steppers, in configuration order.
func (d *Displays) Steppers() []Stepper {
	steppers := make([]Stepper, len(d.Controllers))
	for i, c := range d.Controllers {
		steppers[i] = c
	}
	return steppers
}

// Close releases logind connections and HID devices.
func (d *Displays) Close() error {
	var errs []error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// Build creates a controller for every configured display, in order.
func Build(cfg *config.Config, env Environment) (*Displays, error) {
	env.defaults()
	displays := &Displays{}

	var session LogindSession
	for _, d := range cfg.Displays {
		bounds := d.Bounds()
		var controller *brightness.Controller

		switch d.Kind() {
		case config.KindSoftware:
			controller = xrandr.NewController(d.Name, d.OutputName, bounds, env.Xrandr)

		case config.KindBacklight:
			dir, err := resolveBacklight(d.SysDirectory, env.Discoverer)
			if err != nil {
				_ = displays.Close()
				return nil, fmt.Errorf("display %s: %w", d.Name, err)
			}
			var store backlight.AttributeStore = backlight.FileStore{}
			if d.UseLogind {
				if session == nil {
					session, err = env.ConnectLogind()
					if err != nil {
						_ = displays.Close()
						return nil, fmt.Errorf("display %s: %w", d.Name, err)
					}
					displays.closers = append(displays.closers, session)
				}
				store = backlight.NewLogindStore(session)
			}
			controller = backlight.NewController(d.Name, dir, bounds, store)

		case config.KindStudioDisplay:
			serial := d.Serial
			if serial == "*" {
				serial = ""
			}
			var opts []hid.BackendOption
			if env.OpenHID != nil {
				opts = append(opts, hid.WithOpener(env.OpenHID))
			}
			c, backend := hid.NewController(d.Name, serial, bounds, opts...)
			controller = c
			displays.closers = append(displays.closers, backend)

		default:
			_ = displays.Close()
			return nil, fmt.Errorf("display %s: no brightness backend configured", d.Name)
		}

		log.Debug().
			Str("display", d.Name).
			Str("kind", string(d.Kind())).
			Float64("min", bounds.Min).
			Float64("max", bounds.Max).
			Msg("Configured display")
		displays.Controllers = append(displays.Controllers, controller)
	}
	return displays, nil
}

// resolveBacklight turns a sys-directory setting into a device directory.
// Absolute paths are used as is, "auto" picks the first backlight found and
// anything else names a discovered backlight device.
func resolveBacklight(setting string, discoverer *udev.Discoverer) (string, error) {
	switch {
	case filepath.IsAbs(setting):
		return setting, nil
	case strings.EqualFold(setting, config.AutoDirectory):
		device, err := discoverer.First()
		if err != nil {
			return "", err
		}
		log.Info().Str("device", device.Name).Msg("Using automatically discovered backlight")
		return device.Directory, nil
	default:
		device, err := discoverer.Find(setting)
		if err != nil {
			return "", err
		}
		return device.Directory, nil
	}
}
