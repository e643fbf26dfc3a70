// SPDX-License-Identifier: GPL-3.0-only

package brightness

import (
	"time"

	"github.com/rs/zerolog/log"
)

//go:generate mockgen -source=controller.go -destination=mocks/backend_mock.go -package=mocks

const (
	// GradualStep is the percentage applied per run once the system has been up for a while.
	GradualStep = 10

	// FullStep moves brightness all the way to the configured bound.
	FullStep = 100

	// settleUptime is how long after boot brightness is still changed in a single step.
	settleUptime = 5 * time.Minute
)

// Backend reads and writes raw brightness values of a single display.
// Implementations fetch fresh values from the device on every call except
// where the device documents a value as immutable.
type Backend interface {
	// Current returns the display's current raw brightness.
	Current() (float64, error)

	// Maximum returns the raw value that corresponds to 100%.
	Maximum() (float64, error)

	// Set applies a raw brightness value.
	Set(raw float64) error
}

// Controller nudges a display's brightness while keeping it within bounds.
// It holds no brightness state of its own.
type Controller struct {
	name    string
	bounds  Bounds
	backend Backend
	round   Rounding
}

// NewController creates a controller for the named display.
func NewController(name string, bounds Bounds, backend Backend, round Rounding) *Controller {
	return &Controller{
		name:    name,
		bounds:  bounds,
		backend: backend,
		round:   round,
	}
}

// Name returns the user friendly name of the display.
func (c *Controller) Name() string {
	return c.name
}

// String implements fmt.Stringer.
func (c *Controller) String() string {
	return c.name
}

// Bounds returns the configured percentage bounds.
func (c *Controller) Bounds() Bounds {
	return c.bounds
}

// Current returns the current raw brightness.
func (c *Controller) Current() (float64, error) {
	raw, err := c.backend.Current()
	if err != nil {
		return 0, &ReadError{Name: c.name, What: "current brightness", Err: err}
	}
	return raw, nil
}

func (c *Controller) maximum() (float64, error) {
	raw, err := c.backend.Maximum()
	if err != nil {
		return 0, &ReadError{Name: c.name, What: "maximum brightness", Err: err}
	}
	return raw, nil
}

// ToPercent converts a raw brightness value to a percentage.
func (c *Controller) ToPercent(raw float64) (float64, error) {
	maximum, err := c.maximum()
	if err != nil {
		return 0, err
	}
	return RawToPercent(raw, maximum), nil
}

// ToRaw converts a percentage to an unrounded raw brightness value.
func (c *Controller) ToRaw(percent float64) (float64, error) {
	maximum, err := c.maximum()
	if err != nil {
		return 0, err
	}
	return PercentToRaw(percent, maximum), nil
}

// Normalize clamps percent into the controller's bounds and converts it to a
// raw value the backend accepts.
func (c *Controller) Normalize(percent float64) (float64, float64, error) {
	percent = c.bounds.Clamp(percent)
	raw, err := c.ToRaw(percent)
	if err != nil {
		return 0, 0, err
	}
	return percent, c.round(raw), nil
}

// Increase raises the brightness by step percent. It reports whether a new
// value was applied; false means clamping and rounding left nothing to change.
func (c *Controller) Increase(step float64) (bool, error) {
	return c.adjust(step)
}

// Decrease lowers the brightness by step percent. It reports whether a new
// value was applied; false means clamping and rounding left nothing to change.
func (c *Controller) Decrease(step float64) (bool, error) {
	return c.adjust(-step)
}

func (c *Controller) adjust(delta float64) (bool, error) {
	current, err := c.Current()
	if err != nil {
		return false, err
	}
	oldPercent, err := c.ToPercent(current)
	if err != nil {
		return false, err
	}
	newPercent, raw, err := c.Normalize(oldPercent + delta)
	if err != nil {
		return false, err
	}

	if raw == current {
		if delta < 0 {
			log.Info().Str("display", c.name).Msg("Brightness is already low enough")
		} else {
			log.Info().Str("display", c.name).Msg("Brightness is already high enough")
		}
		return false, nil
	}

	direction := "Increasing"
	if delta < 0 {
		direction = "Decreasing"
	}
	log.Info().
		Str("display", c.name).
		Float64("from", oldPercent).
		Float64("to", newPercent).
		Msgf("%s brightness", direction)
	log.Debug().
		Str("display", c.name).
		Float64("raw", raw).
		Msg("Setting raw brightness")

	if err := c.backend.Set(raw); err != nil {
		return false, &WriteError{Name: c.name, Err: err}
	}
	return true, nil
}

// StepSize picks the percentage to step by. Shortly after boot, or when
// forced, brightness jumps straight to its bound; otherwise it moves gradually.
func StepSize(uptime time.Duration, force bool) float64 {
	if force || uptime < settleUptime {
		return FullStep
	}
	return GradualStep
}
