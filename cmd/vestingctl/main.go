// Command vestingctl derives escrow addresses, encodes and decodes vesting
// program data, and simulates an escrow's lifecycle on an in-memory ledger.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/code-payments/token-vesting/pkg/app"
)

type command struct {
	name  string
	usage string
	run   func(config app.BaseConfig, args []string, out io.Writer) error
}

var commands = []command{
	{"derive", "find a seed and its escrow address", runDerive},
	{"encode", "encode instruction data: encode <initialize|create|unlock|change-destination> [flags]", runEncode},
	{"decode-instruction", "decode hex instruction data", runDecodeInstruction},
	{"decode-state", "decode hex escrow account data", runDecodeState},
	{"simulate", "run an escrow through its lifecycle on an in-memory ledger", runSimulate},
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out, logOut io.Writer) error {
	global := flag.NewFlagSet("vestingctl", flag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(logOut)
	configPath := global.String("config", "config.yaml", "configuration file path")
	global.Usage = func() {
		fmt.Fprintf(logOut, "Usage: vestingctl [--config path] <command> [flags]\n\nCommands:\n")
		for _, c := range commands {
			fmt.Fprintf(logOut, "  %-20s %s\n", c.name, c.usage)
		}
		fmt.Fprintf(logOut, "\nFlags:\n%s", global.FlagUsages())
	}

	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	app.ConfigureLogger(config, logOut)

	name := global.Arg(0)
	for _, c := range commands {
		if c.name == name {
			return c.run(config, global.Args()[1:], out)
		}
	}

	global.Usage()
	return errors.Errorf("unknown command %q", name)
}
