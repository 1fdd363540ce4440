package buses

import (
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"go.viam.com/smbus/smbus"
)

// messenger is the part of *smbus.Bus PeriphBus needs.
type messenger interface {
	Transfer(msgs ...*smbus.Message) error
	Close() error
	String() string
}

// PeriphBus exposes a smbus.Bus as a periph.io i2c.BusCloser, so periph device drivers can run
// on top of it. Each Tx is a single combined transfer.
type PeriphBus struct {
	mu  sync.Mutex
	bus messenger
}

var _ i2c.BusCloser = (*PeriphBus)(nil)

// NewPeriphBus wraps b. Closing the PeriphBus closes b.
func NewPeriphBus(b *smbus.Bus) *PeriphBus {
	return &PeriphBus{bus: b}
}

// Close implements io.Closer.
func (p *PeriphBus) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bus.Close()
}

// Duplex implements conn.Conn.
func (p *PeriphBus) Duplex() conn.Duplex {
	return conn.Half
}

func (p *PeriphBus) String() string {
	return p.bus.String()
}

// SetSpeed implements i2c.Bus. The adapter driver owns the bus clock.
func (p *PeriphBus) SetSpeed(f physic.Frequency) error {
	return errors.Errorf("smbus: cannot set speed to %s; the bus clock is fixed by the adapter driver", f)
}

// Tx implements i2c.Bus. Addresses above 0x7f are sent as 10 bit addresses.
func (p *PeriphBus) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return errors.New("smbus: nothing to transfer")
	}
	var flags smbus.MsgFlag
	if addr > 0x7f {
		flags |= smbus.MsgTen
	}
	msgs := make([]*smbus.Message, 0, 2)
	if len(w) != 0 {
		msgs = append(msgs, &smbus.Message{Addr: addr, Flags: flags, Buf: w})
	}
	if len(r) != 0 {
		msgs = append(msgs, &smbus.Message{Addr: addr, Flags: flags | smbus.MsgRead, Buf: r})
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bus.Transfer(msgs...)
}
