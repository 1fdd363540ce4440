package smbus

import (
	"fmt"
	"runtime"
	"unsafe"

	"go.uber.org/multierr"
)

// Request is one SMBus transaction. For transactions that return data, Do replaces Payload with
// the decoded result.
type Request struct {
	Direction Direction
	Command   byte
	Size      SizeClass
	Payload   Payload
	// Force overrides the handle's default force flag for this transaction when set.
	Force *bool
}

// CallOption adjusts a single transaction.
type CallOption func(*Request)

// Forced selects the slave address with I2C_SLAVE_FORCE (true) or I2C_SLAVE (false) for one
// transaction, regardless of the handle default.
func Forced(force bool) CallOption {
	return func(r *Request) {
		r.Force = &force
	}
}

func (r *Request) with(opts []CallOption) *Request {
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// validate checks the request against its size class before anything reaches the driver.
func (r *Request) validate(op string) error {
	if !r.Size.Valid() {
		return &ValidationError{Op: op, Reason: fmt.Sprintf("unsupported size class %d", uint32(r.Size))}
	}
	have, want := r.Payload.Kind(), r.Size.PayloadKind()
	switch {
	case r.Size == Quick, r.Size == Byte && r.Direction == Write:
		// The command field carries everything.
		want = PayloadNone
	case r.Direction == Read && r.Size != I2CBlockData && have == PayloadNone:
		// Nothing to send; the result is decoded from the union.
		want = PayloadNone
	}
	if have != want {
		return &ValidationError{
			Op:     op,
			Reason: fmt.Sprintf("%s transfer needs a %s payload, got %s", r.Size, want, have),
		}
	}
	if have == PayloadBlock && len(r.Payload.block) > BlockMax {
		return newLengthError(op, len(r.Payload.block), BlockMax)
	}
	return nil
}

// Do performs an arbitrary SMBus transaction against addr. It is the encoder every typed
// operation uses; most callers want one of those instead.
func (b *Bus) Do(addr uint16, req *Request) error {
	return b.transact(OpDo, addr, req)
}

func (b *Bus) transact(op string, addr uint16, req *Request) error {
	if err := req.validate(op); err != nil {
		return err
	}
	if !b.IsOpen() {
		return &TransferError{Op: op, Addr: addr, Err: ErrClosed}
	}
	force := b.force
	if req.Force != nil {
		force = *req.Force
	}
	if err := b.SetAddress(addr, force); err != nil {
		return err
	}
	fd, err := b.fd()
	if err != nil {
		return &TransferError{Op: op, Addr: addr, Err: err}
	}

	var data smbusData
	req.Payload.encode(&data)
	msg := smbusIoctlData{
		readWrite: uint8(req.Direction),
		command:   req.Command,
		size:      uint32(req.Size),
		data:      unsafe.Pointer(&data),
	}
	err = b.kernel.ioctlPtr(fd, ioctlSMBus, unsafe.Pointer(&msg))
	runtime.KeepAlive(&data)
	if err != nil {
		return &TransferError{Op: op, Addr: addr, Err: err}
	}
	if req.Size.returnsData(req.Direction) {
		req.Payload = decodePayload(req.Size, &data, len(req.Payload.block))
	}
	return nil
}

// flagged runs a CloseAndFlag operation: any failure closes the bus and is reported in the
// Result rather than returned.
func (b *Bus) flagged(op string, addr uint16, pec bool, req *Request) Result {
	err := func() error {
		if pec {
			if err := b.SetPEC(true); err != nil {
				return err
			}
		}
		return b.transact(op, addr, req)
	}()
	if err != nil {
		b.logger.Warnw("closing bus after failed transfer", "path", b.path, "op", op, "addr", addr, "error", err)
		return failed(multierr.Combine(err, b.Close()))
	}
	return succeeded()
}

// WriteQuick sends only the address and a write bit. It is commonly used to probe for devices.
func (b *Bus) WriteQuick(addr uint16, opts ...CallOption) error {
	req := &Request{Direction: Write, Size: Quick}
	return b.transact(OpWriteQuick, addr, req.with(opts))
}

// ReadByte reads a single byte from a device without selecting a register.
func (b *Bus) ReadByte(addr uint16, opts ...CallOption) (byte, error) {
	req := (&Request{Direction: Read, Size: Byte}).with(opts)
	if err := b.transact(OpReadByte, addr, req); err != nil {
		return 0, err
	}
	return req.Payload.Byte()
}

// WriteByte sends a single byte to a device. The value travels in the command field.
func (b *Bus) WriteByte(addr uint16, value byte, opts ...CallOption) error {
	req := &Request{Direction: Write, Command: value, Size: Byte}
	return b.transact(OpWriteByte, addr, req.with(opts))
}

// ReadByteData reads one byte from register reg. On failure the bus is closed.
func (b *Bus) ReadByteData(addr uint16, reg byte, opts ...CallOption) ByteResult {
	req := (&Request{Direction: Read, Command: reg, Size: ByteData}).with(opts)
	res := b.flagged(OpReadByteData, addr, false, req)
	if !res.OK {
		return ByteResult{Result: res}
	}
	v, _ := req.Payload.Byte()
	return ByteResult{Result: res, Value: v}
}

// WriteByteData writes value to register reg. On failure the bus is closed.
func (b *Bus) WriteByteData(addr uint16, reg, value byte, opts ...CallOption) Result {
	req := &Request{Direction: Write, Command: reg, Size: ByteData, Payload: ByteValue(value)}
	return b.flagged(OpWriteByteData, addr, false, req.with(opts))
}

// WriteByteDataPEC enables PEC and writes value to register reg. On failure, including failure to
// enable PEC, the bus is closed.
func (b *Bus) WriteByteDataPEC(addr uint16, reg, value byte, opts ...CallOption) Result {
	req := &Request{Direction: Write, Command: reg, Size: ByteData, Payload: ByteValue(value)}
	return b.flagged(OpWriteByteDataPEC, addr, true, req.with(opts))
}

// ReadWordData reads a 16 bit word from register reg. On failure the bus is closed.
func (b *Bus) ReadWordData(addr uint16, reg byte, opts ...CallOption) WordResult {
	req := (&Request{Direction: Read, Command: reg, Size: WordData}).with(opts)
	res := b.flagged(OpReadWordData, addr, false, req)
	if !res.OK {
		return WordResult{Result: res}
	}
	v, _ := req.Payload.Word()
	return WordResult{Result: res, Value: v}
}

// WriteWordData writes a 16 bit word to register reg. On failure the bus is closed.
func (b *Bus) WriteWordData(addr uint16, reg byte, value uint16, opts ...CallOption) Result {
	req := &Request{Direction: Write, Command: reg, Size: WordData, Payload: WordValue(value)}
	return b.flagged(OpWriteWordData, addr, false, req.with(opts))
}

// WriteWordDataPEC enables PEC and writes a 16 bit word to register reg. On failure, including
// failure to enable PEC, the bus is closed.
func (b *Bus) WriteWordDataPEC(addr uint16, reg byte, value uint16, opts ...CallOption) Result {
	req := &Request{Direction: Write, Command: reg, Size: WordData, Payload: WordValue(value)}
	return b.flagged(OpWriteWordDataPEC, addr, true, req.with(opts))
}

// ProcessCall sends value to register reg and returns the word the device answers with.
func (b *Bus) ProcessCall(addr uint16, reg byte, value uint16, opts ...CallOption) (uint16, error) {
	req := (&Request{Direction: Write, Command: reg, Size: ProcCall, Payload: WordValue(value)}).with(opts)
	if err := b.transact(OpProcessCall, addr, req); err != nil {
		return 0, err
	}
	return req.Payload.Word()
}

// ReadBlockData reads an SMBus block from register reg. The device reports the length.
func (b *Bus) ReadBlockData(addr uint16, reg byte, opts ...CallOption) ([]byte, error) {
	req := (&Request{Direction: Read, Command: reg, Size: BlockData}).with(opts)
	if err := b.transact(OpReadBlockData, addr, req); err != nil {
		return nil, err
	}
	return req.Payload.Block()
}

// WriteBlockData writes an SMBus block of at most BlockMax bytes to register reg.
func (b *Bus) WriteBlockData(addr uint16, reg byte, data []byte, opts ...CallOption) error {
	if len(data) > BlockMax {
		return newLengthError(OpWriteBlockData, len(data), BlockMax)
	}
	req := &Request{Direction: Write, Command: reg, Size: BlockData, Payload: BlockValue(data)}
	return b.transact(OpWriteBlockData, addr, req.with(opts))
}

// BlockProcessCall sends a block of at most BlockMax bytes to register reg and returns the block
// the device answers with.
func (b *Bus) BlockProcessCall(addr uint16, reg byte, data []byte, opts ...CallOption) ([]byte, error) {
	if len(data) > BlockMax {
		return nil, newLengthError(OpBlockProcessCall, len(data), BlockMax)
	}
	req := (&Request{Direction: Write, Command: reg, Size: BlockProcCall, Payload: BlockValue(data)}).with(opts)
	if err := b.transact(OpBlockProcessCall, addr, req); err != nil {
		return nil, err
	}
	return req.Payload.Block()
}

// ReadI2CBlockData reads length bytes starting at register reg. Unlike ReadBlockData the device
// does not report a length, so the caller chooses it.
func (b *Bus) ReadI2CBlockData(addr uint16, reg byte, length int, opts ...CallOption) ([]byte, error) {
	if length > BlockMax {
		return nil, newLengthError(OpReadI2CBlockData, length, BlockMax)
	}
	if length < 0 {
		return nil, &ValidationError{Op: OpReadI2CBlockData, Reason: fmt.Sprintf("negative length %d", length)}
	}
	// The requested length travels in the byte slot, which is also the block length byte.
	req := &Request{Direction: Read, Command: reg, Size: I2CBlockData, Payload: BlockValue(make([]byte, length))}
	if err := b.transact(OpReadI2CBlockData, addr, req.with(opts)); err != nil {
		return nil, err
	}
	return req.Payload.Block()
}

// WriteI2CBlockData writes at most BlockMax bytes starting at register reg.
func (b *Bus) WriteI2CBlockData(addr uint16, reg byte, data []byte, opts ...CallOption) error {
	if len(data) > BlockMax {
		return newLengthError(OpWriteI2CBlockData, len(data), BlockMax)
	}
	req := &Request{Direction: Write, Command: reg, Size: I2CBlockData, Payload: BlockValue(data)}
	return b.transact(OpWriteI2CBlockData, addr, req.with(opts))
}
