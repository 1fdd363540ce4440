// Package cli contains the smbus command line tool: adapter functionality, bus scans and
// register access.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	flagBus     = "bus"
	flagForce   = "force"
	flagDebug   = "debug"
	flagLogFile = "log-file"
	flagWord    = "word"
	flagPEC     = "pec"
	flagFirst   = "first"
	flagLast    = "last"
	flagMode    = "mode"
)

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return newApp(out, errOut, openTarget)
}

func newApp(out, errOut io.Writer, open opener) *cli.App {
	return &cli.App{
		Name:            "smbus",
		Usage:           "talk to SMBus and I2C devices through i2c-dev",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Metadata:        map[string]interface{}{metaOpener: open},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagBus,
				Aliases: []string{"b"},
				Value:   "1",
				Usage:   "bus number or i2c-dev `PATH`",
				EnvVars: []string{"SMBUS_BUS"},
			},
			&cli.BoolFlag{
				Name:    flagForce,
				Aliases: []string{"f"},
				Usage:   "use the slave address even if a kernel driver claims it",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.PathFlag{
				Name:  flagLogFile,
				Usage: "write logs to a rotated `FILE` instead of stdout",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "funcs",
				Usage:  "list the functionality the adapter reports",
				Action: FuncsAction,
			},
			{
				Name:  "detect",
				Usage: "scan the bus for devices",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagFirst,
						Value: "0x03",
						Usage: "first address to probe",
					},
					&cli.StringFlag{
						Name:  flagLast,
						Value: "0x77",
						Usage: "last address to probe",
					},
					&cli.StringFlag{
						Name:  flagMode,
						Value: string(probeAuto),
						Usage: "probe with `MODE`: auto, quick or read",
					},
				},
				Action: DetectAction,
			},
			{
				Name:      "get",
				Usage:     "read a register",
				ArgsUsage: "<address> <register>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    flagWord,
						Aliases: []string{"w"},
						Usage:   "read a word instead of a byte",
					},
				},
				Action: GetAction,
			},
			{
				Name:      "set",
				Usage:     "write a register",
				ArgsUsage: "<address> <register> <value>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    flagWord,
						Aliases: []string{"w"},
						Usage:   "write a word instead of a byte",
					},
					&cli.BoolFlag{
						Name:  flagPEC,
						Usage: "send with packet error checking",
					},
				},
				Action: SetAction,
			},
			{
				Name:      "dump",
				Usage:     "read every byte register of a device",
				ArgsUsage: "<address>",
				Action:    DumpAction,
			},
		},
	}
}
