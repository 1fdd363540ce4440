package smbus

import (
	"bytes"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestByteDataRoundTrip(t *testing.T) {
	k := newFakeKernel(FuncSMBusEmul)
	b := openFake(t, k)

	for _, v := range []byte{0x00, 0x5a, 0xff} {
		res := b.WriteByteData(0x50, 0x10, v)
		test.That(t, res.OK, test.ShouldBeTrue)
		test.That(t, res.Message, test.ShouldEqual, "")

		got := b.ReadByteData(0x50, 0x10)
		test.That(t, got.OK, test.ShouldBeTrue)
		test.That(t, got.Value, test.ShouldEqual, v)
	}
	test.That(t, k.lastSMBus.size, test.ShouldEqual, uint32(ByteData))
	test.That(t, k.lastSMBus.command, test.ShouldEqual, byte(0x10))
	test.That(t, k.lastSMBus.readWrite, test.ShouldEqual, uint8(Read))
	test.That(t, k.count(ioctlSlave), test.ShouldEqual, 1)
}

func TestWordDataRoundTrip(t *testing.T) {
	k := newFakeKernel(FuncSMBusEmul)
	b := openFake(t, k)

	for _, v := range []uint16{0x0000, 0x1234, 0xbeef} {
		res := b.WriteWordData(0x48, 0x02, v)
		test.That(t, res.OK, test.ShouldBeTrue)

		got := b.ReadWordData(0x48, 0x02)
		test.That(t, got.OK, test.ShouldBeTrue)
		test.That(t, got.Value, test.ShouldEqual, v)
	}
	// Low byte first on the wire.
	test.That(t, k.regs[0x48][0x02], test.ShouldEqual, byte(0xef))
	test.That(t, k.regs[0x48][0x03], test.ShouldEqual, byte(0xbe))
}

func TestFlaggedFailureClosesBus(t *testing.T) {
	for _, tc := range []struct {
		name string
		run  func(b *Bus) Result
	}{
		{"ReadByteData", func(b *Bus) Result { return b.ReadByteData(0x50, 0).Result }},
		{"WriteByteData", func(b *Bus) Result { return b.WriteByteData(0x50, 0, 1) }},
		{"ReadWordData", func(b *Bus) Result { return b.ReadWordData(0x50, 0).Result }},
		{"WriteWordData", func(b *Bus) Result { return b.WriteWordData(0x50, 0, 1) }},
		{"WriteByteDataPEC", func(b *Bus) Result { return b.WriteByteDataPEC(0x50, 0, 1) }},
		{"WriteWordDataPEC", func(b *Bus) Result { return b.WriteWordDataPEC(0x50, 0, 1) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			k := newFakeKernel(FuncSMBusEmul)
			k.fail[ioctlSMBus] = syscall.EIO
			b := openFake(t, k)

			res := tc.run(b)
			test.That(t, res.OK, test.ShouldBeFalse)
			test.That(t, res.Message, test.ShouldContainSubstring, "input/output error")
			test.That(t, errors.Is(res.Err, syscall.EIO), test.ShouldBeTrue)
			test.That(t, IsKernel(res.Err), test.ShouldBeTrue)
			test.That(t, b.IsOpen(), test.ShouldBeFalse)

			mode, ok := ErrorModeOf(tc.name)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, mode, test.ShouldEqual, CloseAndFlag)
		})
	}
}

func TestFlaggedAddressFailureClosesBus(t *testing.T) {
	k := newFakeKernel(FuncSMBusEmul)
	k.fail[ioctlSlave] = syscall.EBUSY
	b := openFake(t, k)

	res := b.ReadByteData(0x50, 0)
	test.That(t, res.OK, test.ShouldBeFalse)
	var addrErr *AddressError
	test.That(t, errors.As(res.Err, &addrErr), test.ShouldBeTrue)
	test.That(t, b.IsOpen(), test.ShouldBeFalse)
	test.That(t, k.count(ioctlSMBus), test.ShouldEqual, 0)
}

func TestPEC(t *testing.T) {
	t.Run("enabled right before the transfer", func(t *testing.T) {
		k := newFakeKernel(FuncSMBusEmul)
		b := openFake(t, k)

		res := b.WriteByteDataPEC(0x50, 0x01, 0x7f)
		test.That(t, res.OK, test.ShouldBeTrue)
		test.That(t, b.PEC(), test.ShouldBeTrue)
		test.That(t, k.pec, test.ShouldBeTrue)
		test.That(t, k.calls, test.ShouldResemble, []uintptr{ioctlFuncs, ioctlPEC, ioctlSlave, ioctlSMBus})
		test.That(t, k.regs[0x50][0x01], test.ShouldEqual, byte(0x7f))

		res = b.WriteWordDataPEC(0x50, 0x04, 0x0102)
		test.That(t, res.OK, test.ShouldBeTrue)
		test.That(t, k.count(ioctlPEC), test.ShouldEqual, 2)
	})

	t.Run("toggle failure aborts and closes", func(t *testing.T) {
		k := newFakeKernel(FuncSMBusEmul)
		k.fail[ioctlPEC] = syscall.EINVAL
		b := openFake(t, k)

		res := b.WriteByteDataPEC(0x50, 0x01, 0x7f)
		test.That(t, res.OK, test.ShouldBeFalse)
		test.That(t, res.Message, test.ShouldNotBeEmpty)
		var transferErr *TransferError
		test.That(t, errors.As(res.Err, &transferErr), test.ShouldBeTrue)
		test.That(t, transferErr.Op, test.ShouldEqual, OpSetPEC)
		test.That(t, b.IsOpen(), test.ShouldBeFalse)
		test.That(t, b.PEC(), test.ShouldBeFalse)
		test.That(t, k.count(ioctlSlave), test.ShouldEqual, 0)
		test.That(t, k.count(ioctlSMBus), test.ShouldEqual, 0)
	})

	t.Run("plain writes leave the mode alone", func(t *testing.T) {
		k := newFakeKernel(FuncSMBusEmul)
		b := openFake(t, k)
		test.That(t, b.SetPEC(true), test.ShouldBeNil)
		test.That(t, b.WriteByteData(0x50, 0, 0).OK, test.ShouldBeTrue)
		test.That(t, k.count(ioctlPEC), test.ShouldEqual, 1)
		test.That(t, b.SetPEC(false), test.ShouldBeNil)
		test.That(t, b.PEC(), test.ShouldBeFalse)
		test.That(t, k.pec, test.ShouldBeFalse)
	})
}

func TestRaiseStyleOperations(t *testing.T) {
	k := newFakeKernel(FuncSMBusEmul | FuncSMBusBlockData | FuncSMBusBlockProcCall)
	b := openFake(t, k)

	t.Run("quick", func(t *testing.T) {
		test.That(t, b.WriteQuick(0x21), test.ShouldBeNil)
		test.That(t, k.lastSMBus.size, test.ShouldEqual, uint32(Quick))
		test.That(t, k.lastSMBus.readWrite, test.ShouldEqual, uint8(Write))
		test.That(t, k.lastSMBus.command, test.ShouldEqual, byte(0))
	})

	t.Run("byte", func(t *testing.T) {
		test.That(t, b.WriteByteData(0x22, 0x07, 0x99).OK, test.ShouldBeTrue)
		test.That(t, b.WriteByte(0x22, 0x07), test.ShouldBeNil)
		test.That(t, k.lastSMBus.command, test.ShouldEqual, byte(0x07))
		got, err := b.ReadByte(0x22)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, byte(0x99))
	})

	t.Run("process call", func(t *testing.T) {
		got, err := b.ProcessCall(0x22, 0x30, 0x00ff)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, uint16(0x0100))
		test.That(t, k.lastSMBus.readWrite, test.ShouldEqual, uint8(Write))
		test.That(t, k.lastSMBus.size, test.ShouldEqual, uint32(ProcCall))
	})

	t.Run("block data", func(t *testing.T) {
		want := []byte{1, 2, 3, 4, 5}
		test.That(t, b.WriteBlockData(0x23, 0x40, want), test.ShouldBeNil)
		test.That(t, k.lastData[0], test.ShouldEqual, byte(len(want)))
		test.That(t, k.lastData[1:6], test.ShouldResemble, want)

		got, err := b.ReadBlockData(0x23, 0x40)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, want)

		got, err = b.ReadBlockData(0x23, 0x41)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldBeEmpty)
	})

	t.Run("block process call", func(t *testing.T) {
		got, err := b.BlockProcessCall(0x23, 0x09, []byte{1, 2, 3})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, []byte{3, 2, 1, 0x09})
	})

	t.Run("i2c block data", func(t *testing.T) {
		want := bytes.Repeat([]byte{0xab}, BlockMax)
		test.That(t, b.WriteI2CBlockData(0x24, 0x00, want), test.ShouldBeNil)
		test.That(t, k.lastSMBus.size, test.ShouldEqual, uint32(I2CBlockData))

		got, err := b.ReadI2CBlockData(0x24, 0x00, 4)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, want[:4])
		// The requested length sits in the byte slot.
		test.That(t, k.lastData[0], test.ShouldEqual, byte(4))
		test.That(t, k.lastSMBus.readWrite, test.ShouldEqual, uint8(Read))

		got, err = b.ReadI2CBlockData(0x24, 0x00, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldBeEmpty)
	})

	t.Run("i2c block data near the last register", func(t *testing.T) {
		want := make([]byte, BlockMax)
		for i := range want {
			want[i] = byte(i)
		}
		test.That(t, b.WriteI2CBlockData(0x25, 0xf0, want), test.ShouldBeNil)

		got, err := b.ReadI2CBlockData(0x25, 0xf0, BlockMax)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, want)

		got, err = b.ReadI2CBlockData(0x25, 0x00, 2)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, want[0x10:0x12])
	})

	t.Run("kernel failure is returned and the bus stays open", func(t *testing.T) {
		k.fail[ioctlSMBus] = syscall.ENXIO
		defer delete(k.fail, ioctlSMBus)

		for _, tc := range []struct {
			op  string
			run func() error
		}{
			{OpWriteQuick, func() error { return b.WriteQuick(0x25) }},
			{OpReadByte, func() error { _, err := b.ReadByte(0x25); return err }},
			{OpWriteByte, func() error { return b.WriteByte(0x25, 1) }},
			{OpProcessCall, func() error { _, err := b.ProcessCall(0x25, 0, 0); return err }},
			{OpReadBlockData, func() error { _, err := b.ReadBlockData(0x25, 0); return err }},
			{OpWriteBlockData, func() error { return b.WriteBlockData(0x25, 0, []byte{1}) }},
			{OpBlockProcessCall, func() error { _, err := b.BlockProcessCall(0x25, 0, nil); return err }},
			{OpReadI2CBlockData, func() error { _, err := b.ReadI2CBlockData(0x25, 0, 2); return err }},
			{OpWriteI2CBlockData, func() error { return b.WriteI2CBlockData(0x25, 0, []byte{1}) }},
		} {
			err := tc.run()
			var transferErr *TransferError
			test.That(t, errors.As(err, &transferErr), test.ShouldBeTrue)
			test.That(t, transferErr.Op, test.ShouldEqual, tc.op)
			test.That(t, transferErr.Addr, test.ShouldEqual, uint16(0x25))
			test.That(t, errors.Is(err, syscall.ENXIO), test.ShouldBeTrue)
			test.That(t, IsValidation(err), test.ShouldBeFalse)
			test.That(t, b.IsOpen(), test.ShouldBeTrue)

			mode, ok := ErrorModeOf(tc.op)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, mode, test.ShouldEqual, RaiseOnError)
		}
	})
}

func TestBlockLengthValidation(t *testing.T) {
	k := newFakeKernel(FuncSMBusEmul | FuncSMBusBlockData)
	b := openFake(t, k)

	for n := 0; n <= BlockMax; n++ {
		test.That(t, b.WriteBlockData(0x50, 0, make([]byte, n)), test.ShouldBeNil)
	}
	test.That(t, k.count(ioctlSMBus), test.ShouldEqual, BlockMax+1)

	before := len(k.calls)
	tooLong := make([]byte, BlockMax+1)
	for _, err := range []error{
		b.WriteBlockData(0x51, 0, tooLong),
		b.WriteI2CBlockData(0x51, 0, tooLong),
		func() error { _, err := b.BlockProcessCall(0x51, 0, tooLong); return err }(),
		func() error { _, err := b.ReadI2CBlockData(0x51, 0, BlockMax+1); return err }(),
		func() error { _, err := b.ReadI2CBlockData(0x51, 0, -1); return err }(),
		b.Do(0x51, &Request{Direction: Write, Size: BlockData, Payload: BlockValue(tooLong)}),
	} {
		var verr *ValidationError
		test.That(t, errors.As(err, &verr), test.ShouldBeTrue)
		test.That(t, IsValidation(err), test.ShouldBeTrue)
		test.That(t, IsKernel(err), test.ShouldBeFalse)
	}
	test.That(t, len(k.calls), test.ShouldEqual, before)
	test.That(t, b.IsOpen(), test.ShouldBeTrue)
}

func TestDo(t *testing.T) {
	k := newFakeKernel(FuncSMBusEmul)
	b := openFake(t, k)

	t.Run("payload must match the size class", func(t *testing.T) {
		for _, req := range []*Request{
			{Direction: Write, Size: WordData, Payload: ByteValue(1)},
			{Direction: Write, Size: ByteData},
			{Direction: Write, Size: Quick, Payload: ByteValue(1)},
			{Direction: Read, Size: I2CBlockData},
			{Direction: Read, Size: 6},
			{Direction: Read, Size: 9},
		} {
			err := b.Do(0x50, req)
			test.That(t, IsValidation(err), test.ShouldBeTrue)
		}
		test.That(t, k.count(ioctlSMBus), test.ShouldEqual, 0)
	})

	t.Run("decodes the result", func(t *testing.T) {
		req := &Request{Direction: Write, Command: 0x11, Size: WordData, Payload: WordValue(0xcafe)}
		test.That(t, b.Do(0x50, req), test.ShouldBeNil)

		req = &Request{Direction: Read, Command: 0x11, Size: WordData}
		test.That(t, b.Do(0x50, req), test.ShouldBeNil)
		test.That(t, req.Payload.Kind(), test.ShouldEqual, PayloadWord)
		w, err := req.Payload.Word()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, w, test.ShouldEqual, uint16(0xcafe))

		_, err = req.Payload.Byte()
		test.That(t, errors.Is(err, ErrPayloadKind), test.ShouldBeTrue)
	})
}

func TestErrorModeOf(t *testing.T) {
	_, ok := ErrorModeOf("Frobnicate")
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, CloseAndFlag.String(), test.ShouldEqual, "close-and-flag")
	test.That(t, RaiseOnError.String(), test.ShouldEqual, "raise")
}
