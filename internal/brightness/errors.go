// SPDX-License-Identifier: GPL-3.0-only

package brightness

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied is wrapped by backends whose device rejected a write for
// lack of privileges.
var ErrPermissionDenied = errors.New("to control backlight brightness you need super user privileges (consider using sudo to run the program)")

// ReadError reports that a display's brightness could not be determined.
type ReadError struct {
	Name string
	What string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s of %s: %v", e.What, e.Name, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// WriteError reports that a new brightness could not be applied. Use
// errors.Is(err, ErrPermissionDenied) to detect missing privileges.
type WriteError struct {
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to set brightness of %s: %v", e.Name, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
