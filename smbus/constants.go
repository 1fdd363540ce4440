package smbus

import "fmt"

// DevicePath is the i2c-dev node for a numbered adapter.
const DevicePath = "/dev/i2c-%d"

// Commands from uapi/linux/i2c-dev.h.
const (
	ioctlSlave      = 0x0703 // use this slave address
	ioctlFuncs      = 0x0705 // get the adapter functionality mask
	ioctlSlaveForce = 0x0706 // use this slave address, even if it is already in use by a driver
	ioctlRdwr       = 0x0707 // combined R/W transfer (one STOP only)
	ioctlPEC        = 0x0708 // != 0 to use PEC with SMBus
	ioctlSMBus      = 0x0720 // SMBus transfer, takes a pointer to i2c_smbus_ioctl_data
)

const (
	// BlockMax is the largest SMBus block payload in bytes.
	BlockMax = 32
	// RdwrMaxMsgs is the most messages a single combined transfer may carry.
	RdwrMaxMsgs = 42
	// MaxAddr is the largest 10-bit slave address.
	MaxAddr = 0x3ff
)

// Direction is the read/write marker of an SMBus transfer.
type Direction uint8

// SMBus transfer read or write markers from uapi/linux/i2c.h.
const (
	Write Direction = 0
	Read  Direction = 1
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// SizeClass selects the shape of an SMBus transaction and of its payload.
type SizeClass uint32

// Size identifiers from uapi/linux/i2c.h. 6 is I2C_SMBUS_I2C_BLOCK_BROKEN, which the kernel no
// longer accepts.
const (
	Quick         SizeClass = 0
	Byte          SizeClass = 1
	ByteData      SizeClass = 2
	WordData      SizeClass = 3
	ProcCall      SizeClass = 4
	BlockData     SizeClass = 5
	BlockProcCall SizeClass = 7
	I2CBlockData  SizeClass = 8
)

// Valid reports whether the kernel accepts s.
func (s SizeClass) Valid() bool {
	switch s {
	case Quick, Byte, ByteData, WordData, ProcCall, BlockData, BlockProcCall, I2CBlockData:
		return true
	default:
		return false
	}
}

func (s SizeClass) String() string {
	switch s {
	case Quick:
		return "quick"
	case Byte:
		return "byte"
	case ByteData:
		return "byte-data"
	case WordData:
		return "word-data"
	case ProcCall:
		return "process-call"
	case BlockData:
		return "block-data"
	case BlockProcCall:
		return "block-process-call"
	case I2CBlockData:
		return "i2c-block-data"
	default:
		return fmt.Sprintf("size(%d)", uint32(s))
	}
}

// PayloadKind is the arm of the i2c_smbus_data union a size class uses.
func (s SizeClass) PayloadKind() PayloadKind {
	switch s {
	case Byte, ByteData:
		return PayloadByte
	case WordData, ProcCall:
		return PayloadWord
	case BlockData, BlockProcCall, I2CBlockData:
		return PayloadBlock
	default:
		return PayloadNone
	}
}

// returnsData reports whether the kernel writes a result back into the union for a transfer of
// this size in direction d.
func (s SizeClass) returnsData(d Direction) bool {
	switch s {
	case Quick:
		return false
	case ProcCall, BlockProcCall:
		return true
	default:
		return d == Read
	}
}
