package smbus

import (
	"fmt"

	"github.com/samber/lo"
)

// Functionality is the adapter capability mask reported by I2C_FUNCS.
type Functionality uint32

// Functionality bits from uapi/linux/i2c.h.
const (
	FuncI2C                 Functionality = 0x00000001
	Func10BitAddr           Functionality = 0x00000002
	FuncProtocolMangling    Functionality = 0x00000004 // I2C_M_IGNORE_NAK etc.
	FuncSMBusPEC            Functionality = 0x00000008
	FuncNoStart             Functionality = 0x00000010 // I2C_M_NOSTART
	FuncSlave               Functionality = 0x00000020
	FuncSMBusBlockProcCall  Functionality = 0x00008000 // SMBus 2.0
	FuncSMBusQuick          Functionality = 0x00010000
	FuncSMBusReadByte       Functionality = 0x00020000
	FuncSMBusWriteByte      Functionality = 0x00040000
	FuncSMBusReadByteData   Functionality = 0x00080000
	FuncSMBusWriteByteData  Functionality = 0x00100000
	FuncSMBusReadWordData   Functionality = 0x00200000
	FuncSMBusWriteWordData  Functionality = 0x00400000
	FuncSMBusProcCall       Functionality = 0x00800000
	FuncSMBusReadBlockData  Functionality = 0x01000000
	FuncSMBusWriteBlockData Functionality = 0x02000000
	FuncSMBusReadI2CBlock   Functionality = 0x04000000 // I2C-like block xfer
	FuncSMBusWriteI2CBlock  Functionality = 0x08000000 // w/ 1-byte reg. addr.
	FuncSMBusHostNotify     Functionality = 0x10000000

	FuncSMBusByte      = FuncSMBusReadByte | FuncSMBusWriteByte
	FuncSMBusByteData  = FuncSMBusReadByteData | FuncSMBusWriteByteData
	FuncSMBusWordData  = FuncSMBusReadWordData | FuncSMBusWriteWordData
	FuncSMBusBlockData = FuncSMBusReadBlockData | FuncSMBusWriteBlockData
	FuncSMBusI2CBlock  = FuncSMBusReadI2CBlock | FuncSMBusWriteI2CBlock
	FuncSMBusEmul      = FuncSMBusQuick | FuncSMBusByte | FuncSMBusByteData | FuncSMBusWordData |
		FuncSMBusProcCall | FuncSMBusWriteBlockData | FuncSMBusI2CBlock | FuncSMBusPEC
)

type funcName struct {
	bit  Functionality
	name string
}

var funcNames = []funcName{
	{FuncI2C, "I2C"},
	{Func10BitAddr, "10-bit addressing"},
	{FuncProtocolMangling, "protocol mangling"},
	{FuncSMBusPEC, "SMBus PEC"},
	{FuncNoStart, "no start"},
	{FuncSlave, "slave"},
	{FuncSMBusBlockProcCall, "SMBus block process call"},
	{FuncSMBusQuick, "SMBus quick command"},
	{FuncSMBusReadByte, "SMBus receive byte"},
	{FuncSMBusWriteByte, "SMBus send byte"},
	{FuncSMBusReadByteData, "SMBus read byte"},
	{FuncSMBusWriteByteData, "SMBus write byte"},
	{FuncSMBusReadWordData, "SMBus read word"},
	{FuncSMBusWriteWordData, "SMBus write word"},
	{FuncSMBusProcCall, "SMBus process call"},
	{FuncSMBusReadBlockData, "SMBus block read"},
	{FuncSMBusWriteBlockData, "SMBus block write"},
	{FuncSMBusReadI2CBlock, "I2C block read"},
	{FuncSMBusWriteI2CBlock, "I2C block write"},
	{FuncSMBusHostNotify, "SMBus host notify"},
}

// Has reports whether every bit of bits is set in f.
func (f Functionality) Has(bits Functionality) bool {
	return f&bits == bits
}

// SupportsI2C reports plain I2C (I2C_RDWR) support.
func (f Functionality) SupportsI2C() bool { return f.Has(FuncI2C) }

// Supports10BitAddr reports 10-bit slave address support.
func (f Functionality) Supports10BitAddr() bool { return f.Has(Func10BitAddr) }

// SupportsPEC reports packet error checking support.
func (f Functionality) SupportsPEC() bool { return f.Has(FuncSMBusPEC) }

// SupportsQuick reports quick command support.
func (f Functionality) SupportsQuick() bool { return f.Has(FuncSMBusQuick) }

// SupportsReadByte reports receive byte support.
func (f Functionality) SupportsReadByte() bool { return f.Has(FuncSMBusReadByte) }

// SupportsWriteByte reports send byte support.
func (f Functionality) SupportsWriteByte() bool { return f.Has(FuncSMBusWriteByte) }

// SupportsReadByteData reports byte-data read support.
func (f Functionality) SupportsReadByteData() bool { return f.Has(FuncSMBusReadByteData) }

// SupportsWriteByteData reports byte-data write support.
func (f Functionality) SupportsWriteByteData() bool { return f.Has(FuncSMBusWriteByteData) }

// SupportsReadWordData reports word-data read support.
func (f Functionality) SupportsReadWordData() bool { return f.Has(FuncSMBusReadWordData) }

// SupportsWriteWordData reports word-data write support.
func (f Functionality) SupportsWriteWordData() bool { return f.Has(FuncSMBusWriteWordData) }

// SupportsProcCall reports process call support.
func (f Functionality) SupportsProcCall() bool { return f.Has(FuncSMBusProcCall) }

// SupportsBlockProcCall reports block process call support.
func (f Functionality) SupportsBlockProcCall() bool { return f.Has(FuncSMBusBlockProcCall) }

// SupportsReadBlockData reports SMBus block read support. Most pure I2C adapters that emulate
// SMBus do not have it.
func (f Functionality) SupportsReadBlockData() bool { return f.Has(FuncSMBusReadBlockData) }

// SupportsWriteBlockData reports SMBus block write support.
func (f Functionality) SupportsWriteBlockData() bool { return f.Has(FuncSMBusWriteBlockData) }

// SupportsReadI2CBlock reports I2C block read support.
func (f Functionality) SupportsReadI2CBlock() bool { return f.Has(FuncSMBusReadI2CBlock) }

// SupportsWriteI2CBlock reports I2C block write support.
func (f Functionality) SupportsWriteI2CBlock() bool { return f.Has(FuncSMBusWriteI2CBlock) }

// Supports reports whether the adapter advertises the transaction shape s in direction d.
func (f Functionality) Supports(s SizeClass, d Direction) bool {
	switch s {
	case Quick:
		return f.SupportsQuick()
	case Byte:
		return f.Has(lo.Ternary(d == Read, FuncSMBusReadByte, FuncSMBusWriteByte))
	case ByteData:
		return f.Has(lo.Ternary(d == Read, FuncSMBusReadByteData, FuncSMBusWriteByteData))
	case WordData:
		return f.Has(lo.Ternary(d == Read, FuncSMBusReadWordData, FuncSMBusWriteWordData))
	case ProcCall:
		return f.SupportsProcCall()
	case BlockData:
		return f.Has(lo.Ternary(d == Read, FuncSMBusReadBlockData, FuncSMBusWriteBlockData))
	case BlockProcCall:
		return f.SupportsBlockProcCall()
	case I2CBlockData:
		return f.Has(lo.Ternary(d == Read, FuncSMBusReadI2CBlock, FuncSMBusWriteI2CBlock))
	default:
		return false
	}
}

// Names lists the single capabilities set in f, in bit order.
func (f Functionality) Names() []string {
	set := lo.Filter(funcNames, func(item funcName, _ int) bool {
		return f.Has(item.bit)
	})
	return lo.Map(set, func(item funcName, _ int) string {
		return item.name
	})
}

func (f Functionality) String() string {
	return fmt.Sprintf("0x%08x", uint32(f))
}
