// SPDX-License-Identifier: GPL-3.0-only

// Package dbus talks to systemd-logind over the system bus. logind lets the
// owner of an active session change backlight brightness without root.
package dbus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const (
	// ServiceName is the D-Bus service name of systemd-logind.
	ServiceName = "org.freedesktop.login1"

	// SessionPath is the object path that resolves to the caller's own session.
	SessionPath dbus.ObjectPath = "/org/freedesktop/login1/session/auto"

	// SetBrightnessMethod is the session method that writes a backlight or LED brightness.
	SetBrightnessMethod = "org.freedesktop.login1.Session.SetBrightness"
)

// ErrNotAllowed is returned when logind refuses the request, typically because
// the calling session is not active or not local.
var ErrNotAllowed = errors.New("logind refused to change brightness")

// errorNamesNotAllowed lists D-Bus error names that mean the caller lacks rights.
var errorNamesNotAllowed = map[string]bool{
	"org.freedesktop.DBus.Error.AccessDenied":                     true,
	"org.freedesktop.DBus.Error.InteractiveAuthorizationRequired": true,
	"org.freedesktop.login1.NotInControl":                         true,
}

// Caller is the subset of dbus.BusObject used to invoke methods.
// This allows for mocking in tests.
type Caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Session invokes methods on the caller's logind session.
type Session struct {
	conn   *dbus.Conn
	object Caller
}

// NewSession wraps an existing session object, such as a test double.
func NewSession(object Caller) *Session {
	return &Session{object: object}
}

// ConnectSession connects to the system bus and resolves the caller's session.
func ConnectSession() (*Session, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &Session{
		conn:   conn,
		object: conn.Object(ServiceName, SessionPath),
	}, nil
}

// SetBrightness asks logind to write value to /sys/class/<subsystem>/<name>/brightness.
func (s *Session) SetBrightness(subsystem, name string, value uint32) error {
	log.Debug().
		Str("subsystem", subsystem).
		Str("device", name).
		Uint32("value", value).
		Msg("Setting brightness through logind")

	call := s.object.Call(SetBrightnessMethod, 0, subsystem, name, value)
	if call.Err == nil {
		return nil
	}

	if errorNamesNotAllowed[errorName(call.Err)] {
		return fmt.Errorf("%w: %v", ErrNotAllowed, call.Err)
	}
	return fmt.Errorf("failed to call %s: %w", SetBrightnessMethod, call.Err)
}

// errorName extracts the D-Bus error name from an error reply, if any.
func errorName(err error) string {
	var value dbus.Error
	if errors.As(err, &value) {
		return value.Name
	}
	var ptr *dbus.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Name
	}
	return ""
}

// Close disconnects from the system bus.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil
	return conn.Close()
}
