// sshwire decodes captured SSH transport streams and emits client hello
// traffic for testing peers.
//
//	sshwire decode --in capture.bin [--hex] [--state version|cleartext] [--chunk N] [--config FILE]
//	sshwire hello [--config FILE] [--ecdh]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/sshwire/internal/config"
	"github.com/danmuck/sshwire/internal/logging"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage: sshwire <decode|hello> [flags]")

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "sshwire: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "decode":
		return runDecode(args[1:], stdin, stdout)
	case "hello":
		return runHello(args[1:], stdout)
	case "-h", "--help", "help":
		fmt.Fprintln(stdout, errUsage.Error())
		return nil
	default:
		return fmt.Errorf("unknown command %q (supported: decode, hello)", args[0])
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("sshwire "+name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
