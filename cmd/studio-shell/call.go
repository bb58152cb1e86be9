// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
)

// runCall starts the sidecar, sends one call, and prints the result as
// indented JSON.
func runCall(args []string, std streams) error {
	var options commonOptions
	var paramsText string
	var timeout time.Duration
	flags := pflag.NewFlagSet("call", pflag.ContinueOnError)
	options.register(flags)
	flags.StringVarP(&paramsText, "params", "p", "", "call parameters as a JSON value")
	flags.DurationVar(&timeout, "timeout", 0, "stop the sidecar and give up after this long (default: no limit)")
	if err := parseFlags(flags, args, std.stderr); err != nil {
		return finish(err)
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: studio-shell call <method> [--params JSON]")
	}
	method := flags.Arg(0)

	params, err := parseParams(paramsText)
	if err != nil {
		return err
	}

	app, err := newShell(options, std)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	material := app.provisioner().Provision()
	defer material.Close()

	manager, err := app.newManager(material)
	if err != nil {
		return err
	}
	defer manager.Close()
	stopWatch := closeOnDone(ctx, manager)
	defer stopWatch()

	if err := manager.Start(ctx); err != nil {
		return err
	}
	result, err := manager.Call(ctx, method, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: no answer from sidecar: %w", method, ctxErr)
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	return writeIndented(std, result)
}

// parseParams decodes --params. Empty text yields nil, which the
// channel sends as an empty object.
func parseParams(text string) (any, error) {
	if text == "" {
		return nil, nil
	}
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("--params is not valid JSON")
	}
	return json.RawMessage(text), nil
}

func writeIndented(std streams, raw json.RawMessage) error {
	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		return fmt.Errorf("formatting result: %w", err)
	}
	indented.WriteByte('\n')
	_, err := std.stdout.Write(indented.Bytes())
	return err
}
