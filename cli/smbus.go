package cli

import (
	"fmt"
	"io"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/smbus/logging"
	"go.viam.com/smbus/smbus"
)

type probeMode string

const (
	probeAuto  probeMode = "auto"
	probeQuick probeMode = "quick"
	probeRead  probeMode = "read"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLogger(c *cli.Context) (logging.Logger, io.Closer) {
	level := lo.Ternary(c.Bool(flagDebug), logging.DEBUG, logging.INFO)
	if path := c.Path(flagLogFile); path != "" {
		return logging.NewFileLogger("smbus", path, level)
	}
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("smbus"), nopCloser{}
	}
	return logging.NewBlankLogger("smbus"), nopCloser{}
}

// device is the part of *smbus.Bus the commands drive.
type device interface {
	Path() string
	Funcs() smbus.Functionality
	Force() bool
	SetAddress(addr uint16, force bool) error
	WriteQuick(addr uint16, opts ...smbus.CallOption) error
	ReadByte(addr uint16, opts ...smbus.CallOption) (byte, error)
	ReadByteData(addr uint16, reg byte, opts ...smbus.CallOption) smbus.ByteResult
	WriteByteData(addr uint16, reg, value byte, opts ...smbus.CallOption) smbus.Result
	WriteByteDataPEC(addr uint16, reg, value byte, opts ...smbus.CallOption) smbus.Result
	ReadWordData(addr uint16, reg byte, opts ...smbus.CallOption) smbus.WordResult
	WriteWordData(addr uint16, reg byte, value uint16, opts ...smbus.CallOption) smbus.Result
	WriteWordDataPEC(addr uint16, reg byte, value uint16, opts ...smbus.CallOption) smbus.Result
	Close() error
}

// opener opens the device named by the bus flag.
type opener func(target string, opts ...smbus.Option) (device, error)

// metaOpener is the App.Metadata key holding the opener the commands use.
const metaOpener = "opener"

func openTarget(target string, opts ...smbus.Option) (device, error) {
	b, err := smbus.OpenTarget(target, opts...)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// withBus opens the bus named by the global flags for the duration of fn.
func withBus(c *cli.Context, fn func(device) error) (err error) {
	logger, logCloser := newLogger(c)
	defer func() {
		err = multierr.Combine(err, logCloser.Close())
	}()
	open, ok := c.App.Metadata[metaOpener].(opener)
	if !ok {
		open = openTarget
	}
	b, err := open(c.String(flagBus), smbus.WithForce(c.Bool(flagForce)), smbus.WithLogger(logger))
	if err != nil {
		return err
	}
	return multierr.Combine(fn(b), b.Close())
}

// parseNumbers parses each argument as a decimal, hex (0x) or octal (0) number of at most bits bits.
func parseNumbers(args []string, bits int) ([]uint64, error) {
	var errs error
	vals := lo.Map(args, func(arg string, _ int) uint64 {
		v, err := strconv.ParseUint(arg, 0, bits)
		errs = multierr.Append(errs, errors.Wrapf(err, "invalid number %q", arg))
		return v
	})
	return vals, errs
}

func parseAddress(arg string) (uint16, error) {
	vals, err := parseNumbers([]string{arg}, 16)
	if err != nil {
		return 0, err
	}
	if vals[0] > smbus.MaxAddr {
		return 0, errors.Errorf("address 0x%x out of range", vals[0])
	}
	return uint16(vals[0]), nil
}

func expectArgs(c *cli.Context, n int) error {
	if c.Args().Len() != n {
		return errors.Errorf("%s expects %d arguments, got %d; usage: %s %s",
			c.Command.Name, n, c.Args().Len(), c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

// FuncsAction prints the adapter functionality.
func FuncsAction(c *cli.Context) error {
	return withBus(c, func(b device) error {
		printf(c, "%s functionality %s", b.Path(), b.Funcs())
		printf(c, "%s", funcsTable(b.Funcs()))
		return nil
	})
}

func funcsTable(funcs smbus.Functionality) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Functionality", "Supported"})
	for bit := 0; bit < 32; bit++ {
		f := smbus.Functionality(1 << bit)
		names := f.Names()
		if len(names) == 0 {
			continue
		}
		t.AppendRow(table.Row{names[0], lo.Ternary(funcs.Has(f), "yes", "no")})
	}
	return t.Render()
}

// DetectAction probes every address in range and prints a map of the devices that answer.
func DetectAction(c *cli.Context) error {
	first, err := parseAddress(c.String(flagFirst))
	if err != nil {
		return err
	}
	last, err := parseAddress(c.String(flagLast))
	if err != nil {
		return err
	}
	if first > last || last > 0x7f {
		return errors.Errorf("invalid scan range 0x%02x-0x%02x", first, last)
	}
	mode := probeMode(c.String(flagMode))
	if !lo.Contains([]probeMode{probeAuto, probeQuick, probeRead}, mode) {
		return errors.Errorf("unknown probe mode %q", mode)
	}

	return withBus(c, func(b device) error {
		found := map[uint16]string{}
		for addr := first; addr <= last; addr++ {
			found[addr] = probe(b, addr, mode)
		}
		printf(c, "%s", detectTable(first, last, found))
		return nil
	})
}

// probeWith returns the probe used for addr. Quick writes can lock up EEPROMs and read bytes can
// confuse write-only chips, so auto mode reads in the EEPROM ranges and writes elsewhere.
func probeWith(addr uint16, mode probeMode) probeMode {
	if mode != probeAuto {
		return mode
	}
	if (addr >= 0x30 && addr <= 0x37) || (addr >= 0x50 && addr <= 0x5f) {
		return probeRead
	}
	return probeQuick
}

func probe(b device, addr uint16, mode probeMode) string {
	if err := b.SetAddress(addr, b.Force()); err != nil {
		if errors.Is(err, syscall.EBUSY) {
			return "UU"
		}
		return "--"
	}
	var err error
	if probeWith(addr, mode) == probeRead {
		_, err = b.ReadByte(addr)
	} else {
		err = b.WriteQuick(addr)
	}
	if err != nil {
		return "--"
	}
	return fmt.Sprintf("%02x", addr)
}

func detectTable(first, last uint16, found map[uint16]string) string {
	t := table.NewWriter()
	header := table.Row{""}
	for col := 0; col < 16; col++ {
		header = append(header, fmt.Sprintf("%x", col))
	}
	t.AppendHeader(header)
	for base := first &^ 0xf; base <= last; base += 0x10 {
		row := table.Row{fmt.Sprintf("%02x", base)}
		for col := uint16(0); col < 16; col++ {
			cell, ok := found[base+col]
			row = append(row, lo.Ternary(ok, cell, ""))
		}
		t.AppendRow(row)
	}
	return t.Render()
}

// GetAction reads one register.
func GetAction(c *cli.Context) error {
	if err := expectArgs(c, 2); err != nil {
		return err
	}
	addr, err := parseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}
	regs, err := parseNumbers([]string{c.Args().Get(1)}, 8)
	if err != nil {
		return err
	}
	reg := byte(regs[0])

	return withBus(c, func(b device) error {
		if c.Bool(flagWord) {
			res := b.ReadWordData(addr, reg)
			if res.OK {
				printf(c, "0x%04x", res.Value)
			}
			return res.AsError()
		}
		res := b.ReadByteData(addr, reg)
		if res.OK {
			printf(c, "0x%02x", res.Value)
		}
		return res.AsError()
	})
}

// SetAction writes one register.
func SetAction(c *cli.Context) error {
	if err := expectArgs(c, 3); err != nil {
		return err
	}
	addr, err := parseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}
	bits := lo.Ternary(c.Bool(flagWord), 16, 8)
	vals, err := parseNumbers([]string{c.Args().Get(1), c.Args().Get(2)}, bits)
	if err != nil {
		return err
	}
	if vals[0] > 0xff {
		return errors.Errorf("invalid register 0x%x", vals[0])
	}
	reg := byte(vals[0])
	pec := c.Bool(flagPEC)

	return withBus(c, func(b device) error {
		var res smbus.Result
		switch {
		case c.Bool(flagWord) && pec:
			res = b.WriteWordDataPEC(addr, reg, uint16(vals[1]))
		case c.Bool(flagWord):
			res = b.WriteWordData(addr, reg, uint16(vals[1]))
		case pec:
			res = b.WriteByteDataPEC(addr, reg, byte(vals[1]))
		default:
			res = b.WriteByteData(addr, reg, byte(vals[1]))
		}
		return res.AsError()
	})
}

// DumpAction reads registers 0x00 through 0xff of a device.
func DumpAction(c *cli.Context) error {
	if err := expectArgs(c, 1); err != nil {
		return err
	}
	addr, err := parseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}
	return withBus(c, func(b device) error {
		regs := make([]byte, 0, 256)
		for reg := 0; reg < 256; reg++ {
			res := b.ReadByteData(addr, byte(reg))
			if !res.OK {
				printf(c, "%s", dumpTable(regs))
				return errors.Wrapf(res.AsError(), "dump stopped at register 0x%02x", reg)
			}
			regs = append(regs, res.Value)
		}
		printf(c, "%s", dumpTable(regs))
		return nil
	})
}

func dumpTable(regs []byte) string {
	t := table.NewWriter()
	header := table.Row{""}
	for col := 0; col < 16; col++ {
		header = append(header, fmt.Sprintf("%x", col))
	}
	t.AppendHeader(header)
	for i, chunk := range lo.Chunk(regs, 16) {
		row := table.Row{fmt.Sprintf("%02x", i*16)}
		for _, v := range chunk {
			row = append(row, fmt.Sprintf("%02x", v))
		}
		t.AppendRow(row)
	}
	return t.Render()
}

func printf(c *cli.Context, format string, a ...interface{}) {
	_, _ = fmt.Fprintf(c.App.Writer, format+"\n", a...)
}

// Errorf prints a red "Error: " prefixed message to w. It is used for the final error of a run.
func Errorf(w io.Writer, format string, a ...interface{}) {
	_, _ = color.New(color.FgRed).Fprint(w, "Error: ")
	_, _ = fmt.Fprintf(w, format+"\n", a...)
}
