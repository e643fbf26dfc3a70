// SPDX-License-Identifier: GPL-3.0-only

// Package backlight controls laptop backlights through the /sys/class/backlight
// interface of the Linux kernel.
package backlight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shini4i/auto-brightness/internal/brightness"
	"github.com/shini4i/auto-brightness/internal/dbus"
)

//go:generate mockgen -source=backlight.go -destination=mocks/store_mock.go -package=mocks

const (
	// Subsystem is the logind subsystem name for backlight devices.
	Subsystem = "backlight"

	maxBrightnessFile    = "max_brightness"
	actualBrightnessFile = "actual_brightness"
	brightnessFile       = "brightness"
)

// AttributeStore reads and writes sysfs attribute files.
type AttributeStore interface {
	// Read returns the contents of the attribute file.
	Read(path string) (string, error)

	// Write replaces the contents of the attribute file.
	Write(path, value string) error
}

// FileStore accesses sysfs attributes directly.
type FileStore struct{}

// Read implements AttributeStore.
func (FileStore) Read(path string) (string, error) {
	log.Debug().Str("path", path).Msg("Reading attribute")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write implements AttributeStore. Permission failures wrap
// brightness.ErrPermissionDenied.
func (FileStore) Write(path, value string) error {
	log.Debug().Str("path", path).Str("value", value).Msg("Writing attribute")
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %w", brightness.ErrPermissionDenied, err)
		}
		return err
	}
	return nil
}

// Setter changes a device's brightness on behalf of the caller, like
// (*dbus.Session).SetBrightness.
type Setter interface {
	SetBrightness(subsystem, name string, value uint32) error
}

// LogindStore reads attributes from sysfs and delegates brightness writes to
// systemd-logind, so no write access to sysfs is needed.
type LogindStore struct {
	FileStore
	setter Setter
}

// NewLogindStore creates a store that writes through setter.
func NewLogindStore(setter Setter) *LogindStore {
	return &LogindStore{setter: setter}
}

// Write implements AttributeStore. Only the brightness attribute of a
// backlight device directory can be written.
func (s *LogindStore) Write(path, value string) error {
	if filepath.Base(path) != brightnessFile {
		return fmt.Errorf("logind can only write %s attributes, not %s", brightnessFile, path)
	}
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid brightness value %q: %w", value, err)
	}
	device := filepath.Base(filepath.Dir(path))
	if err := s.setter.SetBrightness(Subsystem, device, uint32(parsed)); err != nil {
		if errors.Is(err, dbus.ErrNotAllowed) {
			return fmt.Errorf("%w: %w", brightness.ErrPermissionDenied, err)
		}
		return err
	}
	return nil
}

// Backend implements brightness.Backend for one backlight device directory.
type Backend struct {
	dir   string
	store AttributeStore

	// The maximum of a device never changes, so it is read once.
	maxOnce sync.Once
	max     float64
	maxErr  error
}

var _ brightness.Backend = (*Backend)(nil)

// NewBackend creates a backend for the device directory dir, for example
// /sys/class/backlight/intel_backlight.
func NewBackend(dir string, store AttributeStore) *Backend {
	if store == nil {
		store = FileStore{}
	}
	return &Backend{dir: dir, store: store}
}

// NewController creates a brightness controller for the device directory dir.
func NewController(name, dir string, bounds brightness.Bounds, store AttributeStore) *brightness.Controller {
	return brightness.NewController(name, bounds, NewBackend(dir, store), brightness.RoundInteger)
}

// Directory returns the device directory.
func (b *Backend) Directory() string {
	return b.dir
}

// Current reads actual_brightness.
func (b *Backend) Current() (float64, error) {
	return b.readInt(actualBrightnessFile)
}

// Maximum reads max_brightness on first use and caches it.
func (b *Backend) Maximum() (float64, error) {
	b.maxOnce.Do(func() {
		b.max, b.maxErr = b.readInt(maxBrightnessFile)
		if b.maxErr == nil && b.max <= 0 {
			b.maxErr = fmt.Errorf("%s reports a maximum brightness of %g", b.dir, b.max)
		}
	})
	return b.max, b.maxErr
}

// Set writes an integer value to the brightness attribute.
func (b *Backend) Set(raw float64) error {
	if raw < 0 {
		return fmt.Errorf("negative brightness %g", raw)
	}
	return b.store.Write(filepath.Join(b.dir, brightnessFile), strconv.FormatInt(int64(raw), 10))
}

func (b *Backend) readInt(name string) (float64, error) {
	path := filepath.Join(b.dir, name)
	contents, err := b.store.Read(path)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(strings.TrimSpace(contents), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return float64(value), nil
}
