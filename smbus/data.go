package smbus

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
)

// smbusData mirrors union i2c_smbus_data: one length byte, BlockMax data bytes and one byte the
// kernel reserves for PEC. The byte and word arms alias the first bytes of the block.
type smbusData [BlockMax + 2]byte

// smbusIoctlData mirrors struct i2c_smbus_ioctl_data.
type smbusIoctlData struct {
	readWrite uint8
	command   uint8
	size      uint32
	data      unsafe.Pointer
}

// i2cMsg mirrors struct i2c_msg.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   unsafe.Pointer
}

// i2cRdwrIoctlData mirrors struct i2c_rdwr_ioctl_data.
type i2cRdwrIoctlData struct {
	msgs  unsafe.Pointer
	nmsgs uint32
}

// PayloadKind names the active arm of a Payload.
type PayloadKind uint8

// Payload arms.
const (
	PayloadNone PayloadKind = iota
	PayloadByte
	PayloadWord
	PayloadBlock
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadNone:
		return "none"
	case PayloadByte:
		return "byte"
	case PayloadWord:
		return "word"
	case PayloadBlock:
		return "block"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Payload is the data carried by an SMBus transaction. Exactly one arm is active, and it must be
// the arm the transaction's SizeClass uses.
type Payload struct {
	kind  PayloadKind
	b     byte
	w     uint16
	block []byte
}

// ErrPayloadKind is returned by Payload accessors when the requested arm is not the active one.
var ErrPayloadKind = errors.New("smbus: payload arm does not match its tag")

// ByteValue returns a payload holding a single byte.
func ByteValue(v byte) Payload {
	return Payload{kind: PayloadByte, b: v}
}

// WordValue returns a payload holding a 16 bit word.
func WordValue(v uint16) Payload {
	return Payload{kind: PayloadWord, w: v}
}

// BlockValue returns a payload holding a copy of data. Blocks longer than BlockMax are rejected
// when the payload is encoded.
func BlockValue(data []byte) Payload {
	return Payload{kind: PayloadBlock, block: append([]byte{}, data...)}
}

// Kind returns the active arm.
func (p Payload) Kind() PayloadKind {
	return p.kind
}

// Byte returns the byte arm.
func (p Payload) Byte() (byte, error) {
	if p.kind != PayloadByte {
		return 0, errors.Wrapf(ErrPayloadKind, "want byte, have %s", p.kind)
	}
	return p.b, nil
}

// Word returns the word arm.
func (p Payload) Word() (uint16, error) {
	if p.kind != PayloadWord {
		return 0, errors.Wrapf(ErrPayloadKind, "want word, have %s", p.kind)
	}
	return p.w, nil
}

// Block returns the block arm.
func (p Payload) Block() ([]byte, error) {
	if p.kind != PayloadBlock {
		return nil, errors.Wrapf(ErrPayloadKind, "want block, have %s", p.kind)
	}
	return p.block, nil
}

// encode writes p into the union storage. Callers validate the tag and block length first.
func (p Payload) encode(data *smbusData) {
	switch p.kind {
	case PayloadByte:
		data[0] = p.b
	case PayloadWord:
		binary.NativeEndian.PutUint16(data[:2], p.w)
	case PayloadBlock:
		data[0] = byte(len(p.block))
		copy(data[1:], p.block)
	case PayloadNone:
	}
}

// decodePayload reads the arm used by size out of the union. Block lengths reported by the
// device are clamped to BlockMax. I2C block reads do not report a length, so want is used and the
// length byte the driver writes back into the union is ignored.
func decodePayload(size SizeClass, data *smbusData, want int) Payload {
	switch size.PayloadKind() {
	case PayloadByte:
		return ByteValue(data[0])
	case PayloadWord:
		return WordValue(binary.NativeEndian.Uint16(data[:2]))
	case PayloadBlock:
		n := int(data[0])
		if size == I2CBlockData {
			n = want
		}
		if n > BlockMax {
			n = BlockMax
		}
		return BlockValue(data[1 : n+1])
	case PayloadNone:
	}
	return Payload{}
}
