package smbus

import (
	"fmt"
	"runtime"
	"unsafe"
)

// MsgFlag is a struct i2c_msg flag.
type MsgFlag uint16

// Message flags from uapi/linux/i2c.h.
const (
	MsgRead       MsgFlag = 0x0001 // read data, from slave to master
	MsgTen        MsgFlag = 0x0010 // this is a ten bit chip address
	MsgDMASafe    MsgFlag = 0x0200 // the buffer of this message is DMA safe
	MsgRecvLen    MsgFlag = 0x0400 // length will be first received byte
	MsgNoReadAck  MsgFlag = 0x0800 // if I2C_FUNC_PROTOCOL_MANGLING
	MsgIgnoreNAK  MsgFlag = 0x1000 // if I2C_FUNC_PROTOCOL_MANGLING
	MsgRevDirAddr MsgFlag = 0x2000 // if I2C_FUNC_PROTOCOL_MANGLING
	MsgNoStart    MsgFlag = 0x4000 // if I2C_FUNC_NOSTART
	MsgStop       MsgFlag = 0x8000 // if I2C_FUNC_PROTOCOL_MANGLING
)

const maxMsgLen = 0xffff

// Message is one segment of a combined transfer. Buf is read from for writes and filled in for
// reads; it must stay untouched until Transfer returns.
type Message struct {
	Addr  uint16
	Flags MsgFlag
	Buf   []byte

	// badLen holds a negative length passed to ReadMessage so Transfer can reject it.
	badLen int
}

// ReadMessage prepares a read of length bytes from addr. A negative length yields an empty
// message that Transfer refuses with a *ValidationError.
func ReadMessage(addr uint16, length int) *Message {
	if length < 0 {
		return &Message{Addr: addr, Flags: MsgRead, Buf: []byte{}, badLen: length}
	}
	return &Message{Addr: addr, Flags: MsgRead, Buf: make([]byte, length)}
}

// WriteMessage prepares a write of a copy of buf to addr.
func WriteMessage(addr uint16, buf []byte) *Message {
	return &Message{Addr: addr, Buf: append([]byte{}, buf...)}
}

// IsRead reports whether the message reads from the slave.
func (m *Message) IsRead() bool {
	return m.Flags&MsgRead != 0
}

// Len returns the message length in bytes.
func (m *Message) Len() int {
	return len(m.Buf)
}

// Bytes returns the message buffer. After a successful Transfer this is the data read.
func (m *Message) Bytes() []byte {
	return m.Buf
}

func (m *Message) String() string {
	return fmt.Sprintf("i2c_msg(0x%02x,%#04x,%x)", m.Addr, uint16(m.Flags), m.Buf)
}

// transferSet is the kernel view of a combined transfer.
type transferSet struct {
	msgs []i2cMsg
	data i2cRdwrIoctlData
}

func newTransferSet(msgs []*Message) (*transferSet, error) {
	if len(msgs) == 0 || len(msgs) > RdwrMaxMsgs {
		return nil, &ValidationError{
			Op:     OpTransfer,
			Reason: fmt.Sprintf("a transfer carries 1 to %d messages, got %d", RdwrMaxMsgs, len(msgs)),
		}
	}
	set := &transferSet{msgs: make([]i2cMsg, len(msgs))}
	for i, m := range msgs {
		if m == nil {
			return nil, &ValidationError{Op: OpTransfer, Reason: fmt.Sprintf("message %d is nil", i)}
		}
		if m.badLen < 0 {
			return nil, &ValidationError{Op: OpTransfer, Reason: fmt.Sprintf("message %d has negative length %d", i, m.badLen)}
		}
		if m.Len() > maxMsgLen {
			return nil, newLengthError(OpTransfer, m.Len(), maxMsgLen)
		}
		if m.Addr > MaxAddr {
			return nil, &ValidationError{Op: OpTransfer, Reason: fmt.Sprintf("message %d address 0x%x out of range", i, m.Addr)}
		}
		set.msgs[i] = i2cMsg{
			addr:  m.Addr,
			flags: uint16(m.Flags),
			len:   uint16(m.Len()),
			buf:   unsafe.Pointer(unsafe.SliceData(m.Buf)),
		}
	}
	set.data = i2cRdwrIoctlData{
		msgs:  unsafe.Pointer(&set.msgs[0]),
		nmsgs: uint32(len(set.msgs)),
	}
	return set, nil
}

// Transfer submits msgs as one combined transaction: a repeated start between messages and a
// single stop at the end. Read messages have their buffers filled in place. The driver reports
// only overall success, not which message failed.
func (b *Bus) Transfer(msgs ...*Message) error {
	set, err := newTransferSet(msgs)
	if err != nil {
		return err
	}
	fd, err := b.fd()
	if err != nil {
		return &TransferError{Op: OpTransfer, Err: err}
	}
	err = b.kernel.ioctlPtr(fd, ioctlRdwr, unsafe.Pointer(&set.data))
	runtime.KeepAlive(set)
	runtime.KeepAlive(msgs)
	if err != nil {
		return &TransferError{Op: OpTransfer, Err: err}
	}
	return nil
}
