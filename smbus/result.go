package smbus

import "github.com/pkg/errors"

// ErrorMode names how an operation reports failure.
type ErrorMode int

const (
	// RaiseOnError operations return a Go error and leave the Bus open.
	RaiseOnError ErrorMode = iota
	// CloseAndFlag operations close the Bus on failure and return a Result with OK unset.
	CloseAndFlag
)

func (m ErrorMode) String() string {
	if m == CloseAndFlag {
		return "close-and-flag"
	}
	return "raise"
}

// Operation names, as reported in TransferError.Op and accepted by ErrorModeOf.
const (
	OpWriteQuick        = "WriteQuick"
	OpReadByte          = "ReadByte"
	OpWriteByte         = "WriteByte"
	OpReadByteData      = "ReadByteData"
	OpWriteByteData     = "WriteByteData"
	OpWriteByteDataPEC  = "WriteByteDataPEC"
	OpReadWordData      = "ReadWordData"
	OpWriteWordData     = "WriteWordData"
	OpWriteWordDataPEC  = "WriteWordDataPEC"
	OpProcessCall       = "ProcessCall"
	OpReadBlockData     = "ReadBlockData"
	OpWriteBlockData    = "WriteBlockData"
	OpBlockProcessCall  = "BlockProcessCall"
	OpReadI2CBlockData  = "ReadI2CBlockData"
	OpWriteI2CBlockData = "WriteI2CBlockData"
	OpTransfer          = "Transfer"
	OpDo                = "Do"
	OpSetPEC            = "SetPEC"
)

var errorModes = map[string]ErrorMode{
	OpWriteQuick:        RaiseOnError,
	OpReadByte:          RaiseOnError,
	OpWriteByte:         RaiseOnError,
	OpReadByteData:      CloseAndFlag,
	OpWriteByteData:     CloseAndFlag,
	OpWriteByteDataPEC:  CloseAndFlag,
	OpReadWordData:      CloseAndFlag,
	OpWriteWordData:     CloseAndFlag,
	OpWriteWordDataPEC:  CloseAndFlag,
	OpProcessCall:       RaiseOnError,
	OpReadBlockData:     RaiseOnError,
	OpWriteBlockData:    RaiseOnError,
	OpBlockProcessCall:  RaiseOnError,
	OpReadI2CBlockData:  RaiseOnError,
	OpWriteI2CBlockData: RaiseOnError,
	OpTransfer:          RaiseOnError,
	OpDo:                RaiseOnError,
	OpSetPEC:            RaiseOnError,
}

// ErrorModeOf returns the error contract of the named operation.
func ErrorModeOf(op string) (ErrorMode, bool) {
	mode, ok := errorModes[op]
	return mode, ok
}

// Result is returned by CloseAndFlag operations. When OK is false the Bus has been closed,
// Message describes the failure and Err holds it.
type Result struct {
	OK      bool
	Message string
	Err     error
}

// ByteResult is a Result carrying the byte read on success.
type ByteResult struct {
	Result
	Value byte
}

// WordResult is a Result carrying the word read on success.
type WordResult struct {
	Result
	Value uint16
}

// AsError returns nil for a successful Result and the failure otherwise.
func (r Result) AsError() error {
	if r.OK {
		return nil
	}
	if r.Err == nil {
		return errors.New(r.Message)
	}
	return r.Err
}

func succeeded() Result {
	return Result{OK: true}
}

func failed(err error) Result {
	return Result{Message: err.Error(), Err: err}
}
