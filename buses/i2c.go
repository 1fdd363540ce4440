package buses

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/smbus/logging"
	"go.viam.com/smbus/smbus"
)

// transactor is the part of *smbus.Bus a handle drives.
type transactor interface {
	Transfer(msgs ...*smbus.Message) error
	ReadByteData(addr uint16, reg byte, opts ...smbus.CallOption) smbus.ByteResult
	WriteByteData(addr uint16, reg, value byte, opts ...smbus.CallOption) smbus.Result
	WriteByteDataPEC(addr uint16, reg, value byte, opts ...smbus.CallOption) smbus.Result
	ReadWordData(addr uint16, reg byte, opts ...smbus.CallOption) smbus.WordResult
	WriteWordData(addr uint16, reg byte, value uint16, opts ...smbus.CallOption) smbus.Result
	WriteWordDataPEC(addr uint16, reg byte, value uint16, opts ...smbus.CallOption) smbus.Result
	ReadI2CBlockData(addr uint16, reg byte, length int, opts ...smbus.CallOption) ([]byte, error)
	WriteI2CBlockData(addr uint16, reg byte, data []byte, opts ...smbus.CallOption) error
	Close() error
}

type i2cBus struct {
	mu     sync.Mutex
	name   string
	pec    bool
	open   func() (transactor, error)
	logger logging.Logger
}

// NewI2cBus returns the bus described by conf. The device node is opened per handle, so a missing
// adapter is reported by OpenHandle.
func NewI2cBus(conf I2CConfig, logger logging.Logger) (I2C, error) {
	path, err := conf.Path()
	if err != nil {
		return nil, err
	}
	logger = logger.Sublogger(conf.Name)
	opts := []smbus.Option{smbus.WithForce(conf.Force), smbus.WithLogger(logger)}
	return &i2cBus{
		name: conf.Name,
		pec:  conf.PEC,
		open: func() (transactor, error) {
			return smbus.OpenPath(path, opts...)
		},
		logger: logger,
	}, nil
}

// NewI2cBuses builds every configured bus, keyed by name.
func NewI2cBuses(confs []I2CConfig, logger logging.Logger) (map[string]I2C, error) {
	i2cs := make(map[string]I2C, len(confs))
	for idx, conf := range confs {
		if err := conf.Validate(indexedPath(idx)); err != nil {
			return nil, err
		}
		if _, ok := i2cs[conf.Name]; ok {
			return nil, errors.Errorf("duplicate i2c bus name %q", conf.Name)
		}
		bus, err := NewI2cBus(conf, logger)
		if err != nil {
			return nil, err
		}
		i2cs[conf.Name] = bus
	}
	return i2cs, nil
}

// OpenHandle blocks until the bus is free, then opens the device node for addr.
func (bus *i2cBus) OpenHandle(addr byte) (I2CHandle, error) {
	bus.mu.Lock()
	t, err := bus.open()
	if err != nil {
		bus.mu.Unlock()
		return nil, errors.Wrapf(err, "cannot open i2c bus %q", bus.name)
	}
	bus.logger.Debugw("opened i2c handle", "addr", addr)
	return &i2cHandle{bus: bus, conn: t, addr: uint16(addr)}, nil
}

type i2cHandle struct {
	bus    *i2cBus
	conn   transactor
	addr   uint16
	closed bool
}

func (h *i2cHandle) check(ctx context.Context) error {
	if h.closed {
		return errors.New("i2c handle already closed")
	}
	return ctx.Err()
}

func (h *i2cHandle) Write(ctx context.Context, tx []byte) error {
	if err := h.check(ctx); err != nil {
		return err
	}
	return h.conn.Transfer(smbus.WriteMessage(h.addr, tx))
}

func (h *i2cHandle) Read(ctx context.Context, count int) ([]byte, error) {
	if err := h.check(ctx); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errors.Errorf("invalid i2c read length %d", count)
	}
	msg := smbus.ReadMessage(h.addr, count)
	if err := h.conn.Transfer(msg); err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

// ReadByteData and the other register operations use the flagged smbus calls. A failure there
// closes the device node, so every later call on this handle fails until it is reopened.
func (h *i2cHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	if err := h.check(ctx); err != nil {
		return 0, err
	}
	res := h.conn.ReadByteData(h.addr, register)
	return res.Value, res.AsError()
}

func (h *i2cHandle) WriteByteData(ctx context.Context, register, data byte) error {
	if err := h.check(ctx); err != nil {
		return err
	}
	if h.bus.pec {
		return h.conn.WriteByteDataPEC(h.addr, register, data).AsError()
	}
	return h.conn.WriteByteData(h.addr, register, data).AsError()
}

func (h *i2cHandle) ReadWordData(ctx context.Context, register byte) (uint16, error) {
	if err := h.check(ctx); err != nil {
		return 0, err
	}
	res := h.conn.ReadWordData(h.addr, register)
	return res.Value, res.AsError()
}

func (h *i2cHandle) WriteWordData(ctx context.Context, register byte, data uint16) error {
	if err := h.check(ctx); err != nil {
		return err
	}
	if h.bus.pec {
		return h.conn.WriteWordDataPEC(h.addr, register, data).AsError()
	}
	return h.conn.WriteWordData(h.addr, register, data).AsError()
}

func (h *i2cHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	if err := h.check(ctx); err != nil {
		return nil, err
	}
	results, err := h.conn.ReadI2CBlockData(h.addr, register, int(numBytes))
	if err != nil {
		return nil, err
	}
	if len(results) != int(numBytes) {
		return nil, errors.Errorf("not enough bytes were read from i2c register %d, address %d on bus %q: needed %d, got %d",
			register, h.addr, h.bus.name, numBytes, len(results))
	}
	return results, nil
}

func (h *i2cHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	if err := h.check(ctx); err != nil {
		return err
	}
	return h.conn.WriteI2CBlockData(h.addr, register, data)
}

// Close releases the device node and unlocks the bus. Closing twice is a no-op.
func (h *i2cHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	defer h.bus.mu.Unlock()
	return h.conn.Close()
}
