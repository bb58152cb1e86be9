// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tokenstudio/lib/commands"
)

// runServe provisions the cache key, starts the sidecar in the
// background, and bridges GUI commands from stdin to it until stdin
// closes, a signal arrives, or the GUI sends exit_app.
func runServe(args []string, std streams) error {
	var options commonOptions
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	options.register(flags)
	if err := parseFlags(flags, args, std.stderr); err != nil {
		return finish(err)
	}

	app, err := newShell(options, std)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	material := app.provisioner().Provision()
	defer material.Close()

	manager, err := app.newManager(material)
	if err != nil {
		return err
	}
	defer manager.Close()

	// Failures are logged by the manager and surface through health and
	// the next call, so the result is not needed here.
	manager.StartInBackground(ctx)

	exit := func(code int) {
		manager.Close()
		material.Close()
		os.Exit(code)
	}
	server := commands.NewServer(commands.NewSurface(manager, app.logger, exit), app.logger)

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, std.stdin, std.stdout)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		app.logger.Info("signal received, shutting down")
		return nil
	}
}
