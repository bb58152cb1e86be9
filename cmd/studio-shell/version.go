// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tokenstudio/lib/version"
)

func runVersion(args []string, std streams) error {
	var jsonOutput bool
	flags := pflag.NewFlagSet("version", pflag.ContinueOnError)
	flags.BoolVar(&jsonOutput, "json", false, "print build information as JSON")
	if err := parseFlags(flags, args, std.stderr); err != nil {
		return finish(err)
	}

	if jsonOutput {
		return json.NewEncoder(std.stdout).Encode(version.Current())
	}
	_, err := fmt.Fprintf(std.stdout, "studio-shell %s\n", version.Full())
	return err
}
