// SPDX-License-Identifier: GPL-3.0-only

// Package brightness implements the backend independent part of display
// brightness control: converting between raw backend values and percentages,
// clamping to configured bounds and stepping toward a target.
package brightness

import (
	"fmt"
	"math"
)

// Rounding turns a computed raw value into one the backend accepts.
type Rounding func(raw float64) float64

// RoundHundredths rounds to two decimal places, for continuous multipliers.
func RoundHundredths(raw float64) float64 {
	return math.Round(raw*100) / 100
}

// RoundInteger rounds to the nearest integer, for discrete device units.
func RoundInteger(raw float64) float64 {
	return math.Round(raw)
}

// Bounds limits the brightness percentage a controller may set.
type Bounds struct {
	Min float64
	Max float64
}

// FullRange allows every percentage from 0 to 100.
var FullRange = Bounds{Min: 0, Max: 100}

// Validate checks that 0 <= Min <= Max <= 100.
func (b Bounds) Validate() error {
	if b.Min < 0 || b.Max > 100 {
		return fmt.Errorf("brightness bounds must lie between 0 and 100 (got %g-%g)", b.Min, b.Max)
	}
	if b.Min > b.Max {
		return fmt.Errorf("minimum brightness %g is greater than maximum brightness %g", b.Min, b.Max)
	}
	return nil
}

// Clamp limits percent to the bounds.
func (b Bounds) Clamp(percent float64) float64 {
	return math.Min(math.Max(percent, b.Min), b.Max)
}

// RawToPercent converts a raw value to a percentage of maximum.
func RawToPercent(raw, maximum float64) float64 {
	return raw / (maximum / 100)
}

// PercentToRaw converts a percentage of maximum to a raw value.
func PercentToRaw(percent, maximum float64) float64 {
	return percent * (maximum / 100)
}
