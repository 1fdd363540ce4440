// Package smbus gives user-space access to I2C/SMBus adapters through the Linux i2c-dev
// character devices (/dev/i2c-N).
//
// A Bus owns one open descriptor. Every addressed transaction first selects the slave address
// (the last address and force flag are cached, so repeated transactions to the same device cost a
// single ioctl), then encodes an i2c_smbus_ioctl_data request for its size class and submits it
// with one ioctl. Combined transfers (Transfer) submit a set of read/write messages as a single
// I2C_RDWR ioctl with repeated starts and one stop.
//
// Two error contracts exist and are part of the API. Most operations return a Go error and leave
// the Bus open. The register data operations (ReadByteData, WriteByteData, ReadWordData,
// WriteWordData and their PEC variants) never return an error: they close the Bus on failure and
// report a Result instead. ErrorModeOf reports which contract an operation uses.
//
// A Bus does no locking. The address cache and PEC mode are per-handle state, so callers sharing
// a Bus between goroutines must serialize access themselves (see the buses package).
package smbus
