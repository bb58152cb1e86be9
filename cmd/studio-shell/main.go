// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tokenstudio/lib/process"
)

// streams are the process's standard streams, replaced in tests.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	if err := run(os.Args[1:], streams{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, std streams) error {
	if len(args) < 1 {
		printUsage(std.stderr)
		return fmt.Errorf("subcommand required")
	}

	subcommand, rest := args[0], args[1:]
	switch subcommand {
	case "serve":
		return runServe(rest, std)
	case "call":
		return runCall(rest, std)
	case "health":
		return runHealth(rest, std)
	case "key":
		return runKey(rest, std)
	case "version", "--version":
		return runVersion(rest, std)
	case "-h", "--help", "help":
		printUsage(std.stdout)
		return nil
	default:
		printUsage(std.stderr)
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage: studio-shell <subcommand> [flags]

Subcommands:
  serve       Run the GUI bridge on stdin/stdout
  call        Send one call to the sidecar and print the result
  health      Start the sidecar and report its state
  key         Inspect, escrow, or restore the token cache key
  version     Print version information

Run 'studio-shell <subcommand> --help' for subcommand flags.
`)
}

// errHelp reports that --help was handled and the command should stop.
var errHelp = errors.New("help requested")

// parseFlags parses args, printing usage to w on --help.
func parseFlags(flags *pflag.FlagSet, args []string, w io.Writer) error {
	flags.SetOutput(w)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

// finish maps errHelp to success.
func finish(err error) error {
	if errors.Is(err, errHelp) {
		return nil
	}
	return err
}
