package smbus

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"go.viam.com/test"

	"go.viam.com/smbus/logging"
)

// fakeKernel answers i2c-dev ioctls the way a driver with simple register-file devices would.
// Every device has 256 byte registers; word registers are stored low byte first.
type fakeKernel struct {
	funcs uint
	fail  map[uintptr]error

	calls []uintptr

	addr  uint16
	force bool
	pec   bool

	regs    map[uint16]*[256]byte
	pointer map[uint16]byte
	blocks  map[uint16]map[byte][]byte

	lastSMBus smbusIoctlData
	lastData  smbusData
	lastMsgs  []i2cMsg
	lastBufs  [][]byte
}

func newFakeKernel(funcs Functionality) *fakeKernel {
	return &fakeKernel{
		funcs:   uint(funcs),
		fail:    map[uintptr]error{},
		regs:    map[uint16]*[256]byte{},
		pointer: map[uint16]byte{},
		blocks:  map[uint16]map[byte][]byte{},
	}
}

func (k *fakeKernel) count(req uintptr) int {
	n := 0
	for _, call := range k.calls {
		if call == req {
			n++
		}
	}
	return n
}

func (k *fakeKernel) device() *[256]byte {
	regs, ok := k.regs[k.addr]
	if !ok {
		regs = &[256]byte{}
		k.regs[k.addr] = regs
	}
	return regs
}

func (k *fakeKernel) ioctl(fd, req, arg uintptr) error {
	k.calls = append(k.calls, req)
	if err := k.fail[req]; err != nil {
		return err
	}
	switch req {
	case ioctlSlave, ioctlSlaveForce:
		k.addr = uint16(arg)
		k.force = req == ioctlSlaveForce
	case ioctlPEC:
		k.pec = arg != 0
	}
	return nil
}

func (k *fakeKernel) ioctlPtr(fd, req uintptr, arg unsafe.Pointer) error {
	k.calls = append(k.calls, req)
	if err := k.fail[req]; err != nil {
		return err
	}
	switch req {
	case ioctlFuncs:
		*(*uint)(arg) = k.funcs
	case ioctlSMBus:
		msg := (*smbusIoctlData)(arg)
		data := (*smbusData)(msg.data)
		k.smbus(msg, data)
		k.lastSMBus = *msg
		k.lastData = *data
	case ioctlRdwr:
		rdwr := (*i2cRdwrIoctlData)(arg)
		msgs := unsafe.Slice((*i2cMsg)(rdwr.msgs), rdwr.nmsgs)
		k.lastMsgs = append([]i2cMsg{}, msgs...)
		k.lastBufs = nil
		for _, m := range msgs {
			buf := unsafe.Slice((*byte)(m.buf), m.len)
			if m.flags&uint16(MsgRead) != 0 {
				for i := range buf {
					buf[i] = byte(0xa0 + i)
				}
			}
			k.lastBufs = append(k.lastBufs, append([]byte{}, buf...))
		}
	}
	return nil
}

func (k *fakeKernel) smbus(msg *smbusIoctlData, data *smbusData) {
	regs := k.device()
	reg := msg.command
	read := Direction(msg.readWrite) == Read
	switch SizeClass(msg.size) {
	case Quick:
	case Byte:
		if read {
			data[0] = regs[k.pointer[k.addr]]
		} else {
			k.pointer[k.addr] = reg
		}
	case ByteData:
		if read {
			data[0] = regs[reg]
		} else {
			regs[reg] = data[0]
		}
	case WordData:
		if read {
			binary.NativeEndian.PutUint16(data[:2], uint16(regs[reg])|uint16(regs[reg+1])<<8)
		} else {
			w := binary.NativeEndian.Uint16(data[:2])
			regs[reg], regs[reg+1] = byte(w), byte(w>>8)
		}
	case ProcCall:
		w := binary.NativeEndian.Uint16(data[:2])
		binary.NativeEndian.PutUint16(data[:2], w+1)
	case BlockData:
		if k.blocks[k.addr] == nil {
			k.blocks[k.addr] = map[byte][]byte{}
		}
		if read {
			block := k.blocks[k.addr][reg]
			data[0] = byte(len(block))
			copy(data[1:], block)
		} else {
			k.blocks[k.addr][reg] = append([]byte{}, data[1:1+int(data[0])]...)
		}
	case BlockProcCall:
		in := append([]byte{}, data[1:1+int(data[0])]...)
		out := make([]byte, 0, len(in)+1)
		for i := len(in) - 1; i >= 0; i-- {
			out = append(out, in[i])
		}
		out = append(out, reg)
		data[0] = byte(len(out))
		copy(data[1:], out)
	case I2CBlockData:
		// Register addresses wrap at the end of the file like an auto-incrementing EEPROM pointer.
		n := min(int(data[0]), BlockMax)
		for i := 0; i < n; i++ {
			r := reg + byte(i)
			if read {
				data[1+i] = regs[r]
			} else {
				regs[r] = data[1+i]
			}
		}
	}
}

// openFake opens a Bus on a scratch file with k standing in for the driver.
func openFake(t *testing.T, k *fakeKernel, opts ...Option) *Bus {
	t.Helper()
	path := filepath.Join(t.TempDir(), "i2c-7")
	test.That(t, os.WriteFile(path, nil, 0o600), test.ShouldBeNil)

	opts = append([]Option{withKernel(k), WithLogger(logging.NewTestLogger(t))}, opts...)
	b, err := OpenPath(path, opts...)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, b.Close(), test.ShouldBeNil)
	})
	return b
}
