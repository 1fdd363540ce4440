package smbus

import (
	"github.com/pkg/errors"
)

// SetAddress selects the slave addressed by subsequent SMBus transactions. When (addr, force)
// matches the last successful selection nothing is sent to the driver.
func (b *Bus) SetAddress(addr uint16, force bool) error {
	if addr > MaxAddr {
		return &AddressError{Addr: addr, Force: force, Err: errors.Errorf("address out of range")}
	}
	fd, err := b.fd()
	if err != nil {
		return &AddressError{Addr: addr, Force: force, Err: err}
	}
	if b.addrValid && b.addr == addr && b.forceLast == force {
		return nil
	}

	req := uintptr(ioctlSlave)
	if force {
		req = ioctlSlaveForce
	}
	if err := b.kernel.ioctl(fd, req, uintptr(addr)); err != nil {
		b.addrValid = false
		return &AddressError{Addr: addr, Force: force, Err: err}
	}
	b.addr = addr
	b.forceLast = force
	b.addrValid = true
	b.logger.Debugw("selected slave address", "addr", addr, "force", force)
	return nil
}

// SetForce changes the default force flag used by addressed transactions.
func (b *Bus) SetForce(force bool) {
	b.force = force
}

// Force returns the default force flag.
func (b *Bus) Force() bool {
	return b.force
}

// SetPEC turns packet error checking on or off for subsequent SMBus transactions.
func (b *Bus) SetPEC(enable bool) error {
	fd, err := b.fd()
	if err != nil {
		return &TransferError{Op: OpSetPEC, Err: err}
	}
	var arg uintptr
	if enable {
		arg = 1
	}
	if err := b.kernel.ioctl(fd, ioctlPEC, arg); err != nil {
		return &TransferError{Op: OpSetPEC, Err: err}
	}
	b.pec = enable
	b.logger.Debugw("set PEC mode", "enabled", enable)
	return nil
}

// PEC reports whether packet error checking was last turned on.
func (b *Bus) PEC() bool {
	return b.pec
}
