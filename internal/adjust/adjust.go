// SPDX-License-Identifier: GPL-3.0-only

// Package adjust moves every configured display one step toward its day or
// night brightness.
package adjust

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shini4i/auto-brightness/internal/brightness"
	"github.com/shini4i/auto-brightness/internal/solar"
	"golang.org/x/sys/unix"
)

// Direction is the way brightness is moved.
type Direction int

const (
	// Brighten raises brightness during the day.
	Brighten Direction = iota
	// Dim lowers brightness at night.
	Dim
)

func (d Direction) String() string {
	if d == Dim {
		return "dim"
	}
	return "brighten"
}

// Stepper is implemented by *brightness.Controller.
type Stepper interface {
	Name() string
	Increase(step float64) (bool, error)
	Decrease(step float64) (bool, error)
}

// Options configures a run.
type Options struct {
	Location solar.Location
	Clock    solar.Clock
	Step     float64
	Displays []Stepper

	// ContinueOnError attempts every display even after one fails. By default
	// the run stops at the first failure.
	ContinueOnError bool
}

// Outcome is the result for a single display.
type Outcome struct {
	Name    string
	Changed bool
	Err     error
}

// Result summarizes a run.
type Result struct {
	Direction Direction
	Outcomes  []Outcome
}

// Run decides between day and night once and then steps each display in the
// order given.
func Run(opts Options) (Result, error) {
	if opts.Clock == nil {
		opts.Clock = solar.SystemClock{}
	}

	dark, err := solar.IsDark(opts.Location, opts.Clock.Now(), opts.Clock.Zone())
	if err != nil {
		return Result{}, fmt.Errorf("failed to determine whether it is dark: %w", err)
	}

	result := Result{Direction: Brighten}
	if dark {
		result.Direction = Dim
	}
	log.Debug().
		Stringer("direction", result.Direction).
		Float64("step", opts.Step).
		Int("displays", len(opts.Displays)).
		Msg("Adjusting displays")

	var errs []error
	for _, display := range opts.Displays {
		var changed bool
		if dark {
			changed, err = display.Decrease(opts.Step)
		} else {
			changed, err = display.Increase(opts.Step)
		}
		result.Outcomes = append(result.Outcomes, Outcome{Name: display.Name(), Changed: changed, Err: err})
		if err == nil {
			continue
		}
		if !opts.ContinueOnError {
			return result, err
		}
		log.Error().Err(err).Str("display", display.Name()).Msg("Failed to adjust display, continuing")
		errs = append(errs, err)
	}
	return result, errors.Join(errs...)
}

// Uptime returns how long the system has been running.
func Uptime() (time.Duration, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("failed to read system uptime: %w", err)
	}
	return time.Duration(info.Uptime) * time.Second, nil
}

// StepFor chooses the step size from uptime unless force is set.
func StepFor(force bool, uptime func() (time.Duration, error)) (float64, error) {
	if force {
		log.Info().Msg("Changing brightness at once (--force was given)")
		return brightness.StepSize(0, true), nil
	}
	up, err := uptime()
	if err != nil {
		return 0, err
	}
	step := brightness.StepSize(up, false)
	if step == brightness.FullStep {
		log.Info().Dur("uptime", up).Msg("Changing brightness at once (system has just booted)")
	} else {
		log.Info().Dur("uptime", up).Msg("Changing brightness gradually (system has been running for a while)")
	}
	return step, nil
}
