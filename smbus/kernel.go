package smbus

import "unsafe"

// kernel is the boundary to the i2c-dev driver. ioctl passes an integer argument, ioctlPtr
// passes a pointer to a request structure that the driver reads and may write back.
type kernel interface {
	ioctl(fd, req, arg uintptr) error
	ioctlPtr(fd, req uintptr, arg unsafe.Pointer) error
}

// sysKernel issues real ioctl syscalls.
type sysKernel struct{}
