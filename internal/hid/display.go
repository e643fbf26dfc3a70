// SPDX-License-Identifier: GPL-3.0-only

package hid

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// ReportID is the HID report ID for brightness control.
	ReportID byte = 0x01

	// ReportSize is the size of the HID feature report in bytes.
	ReportSize = 7

	// AppleVendorID is the USB vendor ID for Apple.
	AppleVendorID uint16 = 0x05ac

	// StudioDisplayProductID is the USB product ID for Apple Studio Display.
	StudioDisplayProductID uint16 = 0x1114

	// BrightnessInterface is the USB interface number for brightness control.
	BrightnessInterface = 0x07
)

const (
	// MinNits is the lowest brightness the display accepts.
	MinNits uint32 = 400

	// MaxNits is the highest brightness the display accepts.
	MaxNits uint32 = 60000

	// NitsRange is the span of adjustable brightness.
	NitsRange = MaxNits - MinNits
)

// ErrDisplayClosed is returned when an operation is attempted on a closed display.
var ErrDisplayClosed = errors.New("display is closed")

// ClampNits ensures the brightness value is within the valid range.
func ClampNits(nits uint32) uint32 {
	if nits < MinNits {
		return MinNits
	}
	if nits > MaxNits {
		return MaxNits
	}
	return nits
}

// Display reads and writes the brightness feature report of a Studio Display.
type Display struct {
	device Device
	closed bool
}

// NewDisplay creates a new Display instance wrapping the given HID device.
func NewDisplay(device Device) *Display {
	return &Display{device: device}
}

// Nits reads the current brightness in nits.
func (d *Display) Nits() (uint32, error) {
	if d.closed {
		return 0, ErrDisplayClosed
	}

	data := make([]byte, ReportSize)
	data[0] = ReportID

	if _, err := d.device.GetFeatureReport(data); err != nil {
		return 0, fmt.Errorf("failed to get feature report: %w", err)
	}

	// Brightness is little-endian in bytes 1-4.
	return binary.LittleEndian.Uint32(data[1:5]), nil
}

// SetNits writes a brightness in nits, clamped to the supported range.
func (d *Display) SetNits(nits uint32) error {
	if d.closed {
		return ErrDisplayClosed
	}

	data := make([]byte, ReportSize)
	data[0] = ReportID
	binary.LittleEndian.PutUint32(data[1:5], ClampNits(nits))

	if _, err := d.device.SendFeatureReport(data); err != nil {
		return fmt.Errorf("failed to send feature report: %w", err)
	}
	return nil
}

// Serial returns the serial number of the display.
func (d *Display) Serial() string {
	return d.device.Info().Serial
}

// ProductName returns the product name of the display.
func (d *Display) ProductName() string {
	return d.device.Info().Product
}

// Close closes the underlying HID device.
func (d *Display) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.device.Close()
}
