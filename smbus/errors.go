package smbus

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

// ErrClosed is returned by operations on a Bus whose descriptor has been released.
var ErrClosed = errors.New("smbus: bus is closed")

// OpenError reports a device node that could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("smbus: cannot open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// CapabilityQueryError reports a failed I2C_FUNCS query while opening a bus.
type CapabilityQueryError struct {
	Path string
	Err  error
}

func (e *CapabilityQueryError) Error() string {
	return fmt.Sprintf("smbus: cannot query functionality of %s: %v", e.Path, e.Err)
}

func (e *CapabilityQueryError) Unwrap() error { return e.Err }

// AddressError reports a failed slave address selection.
type AddressError struct {
	Addr  uint16
	Force bool
	Err   error
}

func (e *AddressError) Error() string {
	if e.Force {
		return fmt.Sprintf("smbus: cannot force slave address 0x%02x: %v", e.Addr, e.Err)
	}
	return fmt.Sprintf("smbus: cannot set slave address 0x%02x: %v", e.Addr, e.Err)
}

func (e *AddressError) Unwrap() error { return e.Err }

// ValidationError reports a request rejected before any syscall was made.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("smbus: %s: %s", e.Op, e.Reason)
}

func newLengthError(op string, length, limit int) *ValidationError {
	return &ValidationError{
		Op:     op,
		Reason: fmt.Sprintf("data length %d exceeds the %d byte maximum", length, limit),
	}
}

// TransferError reports a failed transaction ioctl, including PEC toggles.
type TransferError struct {
	Op   string
	Addr uint16
	Err  error
}

func (e *TransferError) Error() string {
	if e.Op == OpSetPEC || e.Op == OpTransfer {
		return fmt.Sprintf("smbus: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("smbus: %s at 0x%02x: %v", e.Op, e.Addr, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// IsValidation reports whether err was caused by bad input rejected before any syscall.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsKernel reports whether err carries an errno returned by the i2c-dev driver.
func IsKernel(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno)
}
