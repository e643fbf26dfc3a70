// SPDX-License-Identifier: GPL-3.0-only

package hid

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/shini4i/auto-brightness/internal/brightness"
)

// Backend implements brightness.Backend for one Studio Display. Raw values
// are nits above MinNits, so 0% is the dimmest setting the display supports.
// The device is opened on first use and stays open until Close.
type Backend struct {
	serial  string
	opener  DeviceOpener
	display *Display
}

var _ brightness.Backend = (*Backend)(nil)

// BackendOption is a functional option for configuring a Backend.
type BackendOption func(*Backend)

// WithOpener sets a custom device opener for testing.
func WithOpener(fn DeviceOpener) BackendOption {
	return func(b *Backend) {
		b.opener = fn
	}
}

// NewBackend creates a backend for the display with the given serial number.
// An empty serial selects the first display found.
func NewBackend(serial string, opts ...BackendOption) *Backend {
	b := &Backend{
		serial: serial,
		opener: defaultOpener,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewController creates a brightness controller for a Studio Display.
func NewController(name, serial string, bounds brightness.Bounds, opts ...BackendOption) (*brightness.Controller, *Backend) {
	backend := NewBackend(serial, opts...)
	return brightness.NewController(name, bounds, backend, brightness.RoundInteger), backend
}

// defaultOpener wraps OpenDisplay to match the DeviceOpener signature.
func defaultOpener(serial string) (Device, error) {
	return OpenDisplay(serial)
}

func (b *Backend) open() (*Display, error) {
	if b.display != nil {
		return b.display, nil
	}
	device, err := b.opener(b.serial)
	if err != nil {
		return nil, err
	}
	b.display = NewDisplay(device)
	log.Debug().
		Str("serial", b.display.Serial()).
		Str("product", b.display.ProductName()).
		Msg("Opened Studio Display")
	return b.display, nil
}

// Current returns the brightness in nits above MinNits.
func (b *Backend) Current() (float64, error) {
	display, err := b.open()
	if err != nil {
		return 0, err
	}
	nits, err := display.Nits()
	if err != nil {
		return 0, err
	}
	return float64(ClampNits(nits) - MinNits), nil
}

// Maximum returns NitsRange.
func (b *Backend) Maximum() (float64, error) {
	return float64(NitsRange), nil
}

// Set writes MinNits + raw.
func (b *Backend) Set(raw float64) error {
	if raw < 0 || raw > float64(NitsRange) {
		return fmt.Errorf("brightness %g outside 0-%d", raw, NitsRange)
	}
	display, err := b.open()
	if err != nil {
		return err
	}
	return display.SetNits(MinNits + uint32(math.Round(raw)))
}

// Close releases the display if it was opened.
func (b *Backend) Close() error {
	if b.display == nil {
		return nil
	}
	err := b.display.Close()
	b.display = nil
	return err
}
