//go:build !linux

package smbus

import (
	"unsafe"

	"github.com/pkg/errors"
)

var errUnsupportedPlatform = errors.New("smbus: i2c-dev is only available on linux")

func (sysKernel) ioctl(fd, req, arg uintptr) error {
	return errUnsupportedPlatform
}

func (sysKernel) ioctlPtr(fd, req uintptr, arg unsafe.Pointer) error {
	return errUnsupportedPlatform
}
