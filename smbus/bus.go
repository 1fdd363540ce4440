package smbus

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/smbus/logging"
)

// Bus is an open i2c-dev adapter. The zero value is not usable; create one with Open, OpenPath
// or OpenTarget and release it with Close.
type Bus struct {
	path   string
	file   *os.File
	funcs  Functionality
	logger logging.Logger
	kernel kernel

	// force is the default force flag for addressed transactions.
	force bool

	// Address cache. Only meaningful while file is open.
	addr      uint16
	forceLast bool
	addrValid bool

	pec bool
}

// Option configures a Bus at open time.
type Option func(*Bus)

// WithForce sets the default force flag: when true, addressed transactions use I2C_SLAVE_FORCE
// and take the address even if a kernel driver has claimed it.
func WithForce(force bool) Option {
	return func(b *Bus) {
		b.force = force
	}
}

// WithLogger sets the logger the Bus reports to.
func WithLogger(logger logging.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

func withKernel(k kernel) Option {
	return func(b *Bus) {
		b.kernel = k
	}
}

// Open opens /dev/i2c-<bus>.
func Open(bus int, opts ...Option) (*Bus, error) {
	path := fmt.Sprintf(DevicePath, bus)
	if bus < 0 {
		return nil, &OpenError{Path: path, Err: errors.Errorf("invalid bus number %d", bus)}
	}
	return OpenPath(path, opts...)
}

// OpenTarget opens a bus given either its number ("1") or a device path ("/dev/i2c-1").
func OpenTarget(target string, opts ...Option) (*Bus, error) {
	path, err := ParseTarget(target)
	if err != nil {
		return nil, &OpenError{Path: target, Err: err}
	}
	return OpenPath(path, opts...)
}

// ParseTarget resolves a bus number or device path to a device path.
func ParseTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("empty bus target")
	}
	if n, err := strconv.Atoi(target); err == nil {
		if n < 0 {
			return "", errors.Errorf("invalid bus number %d", n)
		}
		return fmt.Sprintf(DevicePath, n), nil
	}
	if strings.HasPrefix(target, "i2c-") {
		if n, err := strconv.Atoi(strings.TrimPrefix(target, "i2c-")); err == nil && n >= 0 {
			return fmt.Sprintf(DevicePath, n), nil
		}
	}
	return target, nil
}

// OpenPath opens the i2c-dev node at path read/write and queries the adapter functionality.
func OpenPath(path string, opts ...Option) (*Bus, error) {
	b := &Bus{path: path, kernel: sysKernel{}}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.Global().Sublogger("smbus")
	}

	//nolint:gosec
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	b.file = f

	funcs, err := b.queryFuncs()
	if err != nil {
		return nil, multierr.Combine(&CapabilityQueryError{Path: path, Err: err}, b.Close())
	}
	b.funcs = funcs
	b.logger.Debugw("opened bus", "path", path, "funcs", funcs.String())
	return b, nil
}

// WithBus opens /dev/i2c-<bus>, runs fn and closes the bus on every exit path. The error from fn
// is combined with any close error.
func WithBus(bus int, fn func(*Bus) error, opts ...Option) (err error) {
	b, err := Open(bus, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, b.Close())
	}()
	return fn(b)
}

// WithBusPath is WithBus for an explicit device path.
func WithBusPath(path string, fn func(*Bus) error, opts ...Option) (err error) {
	b, err := OpenPath(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, b.Close())
	}()
	return fn(b)
}

func (b *Bus) queryFuncs() (Functionality, error) {
	fd, err := b.fd()
	if err != nil {
		return 0, err
	}
	// The driver writes an unsigned long.
	var funcs uint
	if err := b.kernel.ioctlPtr(fd, ioctlFuncs, unsafe.Pointer(&funcs)); err != nil {
		return 0, err
	}
	return Functionality(uint32(funcs)), nil
}

func (b *Bus) fd() (uintptr, error) {
	if b.file == nil {
		return 0, ErrClosed
	}
	return b.file.Fd(), nil
}

// Close releases the descriptor and forgets the cached address and PEC mode. Closing a closed
// Bus does nothing.
func (b *Bus) Close() error {
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	b.addrValid = false
	b.pec = false
	if err != nil {
		return errors.Wrapf(err, "smbus: closing %s", b.path)
	}
	b.logger.Debugw("closed bus", "path", b.path)
	return nil
}

// IsOpen reports whether the descriptor is still held.
func (b *Bus) IsOpen() bool {
	return b.file != nil
}

// Path returns the device node the bus was opened from.
func (b *Bus) Path() string {
	return b.path
}

// Funcs returns the functionality mask queried at open time. The mask is advisory; operations
// the adapter does not support still reach the driver and fail there.
func (b *Bus) Funcs() Functionality {
	return b.funcs
}

func (b *Bus) String() string {
	return b.path
}
