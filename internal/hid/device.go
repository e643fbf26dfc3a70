// SPDX-License-Identifier: GPL-3.0-only

// Package hid controls the brightness of Apple Studio Displays over USB HID.
package hid

//go:generate mockgen -source=device.go -destination=mocks/device_mock.go -package=mocks

// DeviceInfo describes a Studio Display brightness interface. The list
// command prints Serial and Product so they can be copied into the
// configuration.
type DeviceInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Manufacturer string
	Product      string
	// Interface is the USB interface number carrying the brightness reports.
	Interface int
}

// Device is an open brightness interface. A run opens it once, reads the
// current level, writes at most one new level and closes it.
type Device interface {
	// GetFeatureReport fills data with the brightness report; data[0] is the
	// report ID.
	GetFeatureReport(data []byte) (int, error)

	// SendFeatureReport writes a brightness report; data[0] is the report ID.
	SendFeatureReport(data []byte) (int, error)

	Close() error

	Info() DeviceInfo
}

// DeviceOpener opens the display with the given serial number; an empty
// serial opens the first display found.
type DeviceOpener func(serial string) (Device, error)
