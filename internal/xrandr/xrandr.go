// SPDX-License-Identifier: GPL-3.0-only

// Package xrandr controls software display brightness through the xrandr program.
// The brightness multiplier only changes the gamma ramp; it does not dim the
// backlight, but it works for any X11 output.
package xrandr

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shini4i/auto-brightness/internal/brightness"
)

// Maximum is the multiplier that corresponds to 100%. xrandr accepts larger
// values but colours become over-saturated.
const Maximum = 1.0

var (
	// ErrOutputNotFound is returned when the named output is not connected.
	ErrOutputNotFound = errors.New("output not found in xrandr output")

	// ErrNoBrightness is returned when xrandr reports no brightness for the output.
	ErrNoBrightness = errors.New("no brightness reported by xrandr")
)

var (
	// eDP1 connected 1440x900+0+0 (0x49) normal (...) 30mm x 179mm
	outputPattern = regexp.MustCompile(`(?i)^(\S+)\s+connected\b`)
	// <Tab>Brightness: 0.50
	brightnessPattern = regexp.MustCompile(`(?i)^\s+Brightness:\s+(\d+(?:\.\d+)?)`)
)

// Runner executes xrandr with the given arguments and returns its standard output.
type Runner interface {
	Run(args ...string) ([]byte, error)
}

// ExecRunner runs the xrandr binary found in PATH.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(args ...string) ([]byte, error) {
	log.Debug().Strs("args", args).Msg("Executing xrandr")
	var stderr bytes.Buffer
	cmd := exec.Command("xrandr", args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("xrandr %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("xrandr %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Output is a connected output and its brightness multiplier.
type Output struct {
	Name       string
	Brightness float64
	// HasBrightness is false when xrandr printed no Brightness line.
	HasBrightness bool
}

// Outputs queries all connected outputs.
func Outputs(runner Runner) ([]Output, error) {
	listing, err := runner.Run("--query", "--verbose")
	if err != nil {
		return nil, err
	}
	return parseOutputs(listing)
}

func parseOutputs(listing []byte) ([]Output, error) {
	var outputs []Output
	inOutput := false
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" && line[0] != ' ' && line[0] != '\t' {
			// Unindented lines start a new section; only connected outputs are tracked.
			m := outputPattern.FindStringSubmatch(line)
			inOutput = m != nil
			if inOutput {
				outputs = append(outputs, Output{Name: m[1]})
			}
			continue
		}
		if !inOutput {
			continue
		}
		current := &outputs[len(outputs)-1]
		if current.HasBrightness {
			continue
		}
		if m := brightnessPattern.FindStringSubmatch(line); m != nil {
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid brightness %q for %s: %w", m[1], current.Name, err)
			}
			current.Brightness = value
			current.HasBrightness = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read xrandr output: %w", err)
	}
	return outputs, nil
}

// Backend implements brightness.Backend for a single xrandr output.
type Backend struct {
	output string
	runner Runner
}

var _ brightness.Backend = (*Backend)(nil)

// NewBackend creates a backend for the named output. Output names are
// matched case-insensitively.
func NewBackend(output string, runner Runner) *Backend {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Backend{output: output, runner: runner}
}

// NewController creates a brightness controller for the named output.
func NewController(name, output string, bounds brightness.Bounds, runner Runner) *brightness.Controller {
	return brightness.NewController(name, bounds, NewBackend(output, runner), brightness.RoundHundredths)
}

// Current returns the output's brightness multiplier.
func (b *Backend) Current() (float64, error) {
	outputs, err := Outputs(b.runner)
	if err != nil {
		return 0, err
	}
	for _, o := range outputs {
		if !strings.EqualFold(o.Name, b.output) {
			continue
		}
		if !o.HasBrightness {
			return 0, fmt.Errorf("%s: %w", b.output, ErrNoBrightness)
		}
		return o.Brightness, nil
	}
	return 0, fmt.Errorf("%s: %w", b.output, ErrOutputNotFound)
}

// Maximum returns 1.0.
func (b *Backend) Maximum() (float64, error) {
	return Maximum, nil
}

// Set applies a brightness multiplier, formatted with two decimals.
func (b *Backend) Set(raw float64) error {
	_, err := b.runner.Run("--output", b.output, "--brightness", strconv.FormatFloat(raw, 'f', 2, 64))
	return err
}
