// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tokenstudio/lib/cachekey"
	"github.com/bureau-foundation/tokenstudio/lib/commands"
	"github.com/bureau-foundation/tokenstudio/lib/process"
)

// healthReport is the output of the health subcommand.
type healthReport struct {
	Sidecar    commands.HealthReport `json:"sidecar"`
	Responding bool                  `json:"responding"`
	PingError  string                `json:"pingError,omitempty"`
	CacheKey   cacheKeyReport        `json:"cacheKey"`
}

type cacheKeyReport struct {
	Provenance  cachekey.Provenance `json:"provenance"`
	Fingerprint string              `json:"fingerprint,omitempty"`
}

// runHealth starts the sidecar, pings it, and reports. The exit status
// is 1 when the sidecar did not answer.
func runHealth(args []string, std streams) error {
	var options commonOptions
	var jsonOutput bool
	var timeout time.Duration
	flags := pflag.NewFlagSet("health", pflag.ContinueOnError)
	options.register(flags)
	flags.BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "limit for starting and pinging the sidecar; a worker that has not answered by then is stopped")
	if err := parseFlags(flags, args, std.stderr); err != nil {
		return finish(err)
	}

	app, err := newShell(options, std)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	material := app.provisioner().Provision()
	defer material.Close()

	manager, err := app.newManager(material)
	if err != nil {
		return err
	}
	defer manager.Close()
	stopWatch := closeOnDone(ctx, manager)
	defer stopWatch()

	report := healthReport{
		CacheKey: cacheKeyReport{Provenance: material.Provenance, Fingerprint: material.Fingerprint()},
	}
	if err := manager.Start(ctx); err == nil {
		if _, err := manager.Call(ctx, "ping", nil); err != nil {
			report.PingError = err.Error()
			if ctxErr := ctx.Err(); ctxErr != nil {
				report.PingError = "no answer within " + timeout.String() + ": " + ctxErr.Error()
			}
		} else {
			report.Responding = true
		}
	}
	report.Sidecar = commands.NewSurface(manager, app.logger, nil).SidecarHealth()

	if jsonOutput {
		encoder := json.NewEncoder(std.stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	} else {
		renderHealth(std.stdout, report)
	}

	if !report.Responding {
		return &process.ExitError{Code: 1}
	}
	return nil
}

// renderHealth writes a styled report. Colors are dropped when w is not
// a terminal.
func renderHealth(w io.Writer, report healthReport) {
	renderer := lipgloss.NewRenderer(w)
	label := renderer.NewStyle().Bold(true).Width(14)
	good := renderer.NewStyle().Foreground(lipgloss.Color("2"))
	bad := renderer.NewStyle().Foreground(lipgloss.Color("1"))
	faint := renderer.NewStyle().Faint(true)

	line := func(name, value string) {
		fmt.Fprintf(w, "%s %s\n", label.Render(name), value)
	}

	switch {
	case report.Responding:
		line("sidecar", good.Render("running"))
	case report.Sidecar.Running:
		line("sidecar", bad.Render("not responding"))
	default:
		line("sidecar", bad.Render("not running"))
	}
	if report.Sidecar.PID != nil {
		line("pid", strconv.Itoa(*report.Sidecar.PID))
	}
	if report.Sidecar.StartedAt != nil {
		line("started", report.Sidecar.StartedAt.Format(time.RFC3339))
	}
	if report.Sidecar.ErrorCode != nil {
		line("error code", bad.Render(*report.Sidecar.ErrorCode))
	}
	if report.Sidecar.LastError != nil {
		line("last error", *report.Sidecar.LastError)
	}
	if report.PingError != "" {
		line("ping", bad.Render(report.PingError))
	}
	if exit := report.Sidecar.LastExit; exit != nil {
		line("last exit", fmt.Sprintf("pid %d, status %d at %s", exit.PID, exit.Code, exit.At.Format(time.RFC3339)))
		if exit.StderrTail != "" {
			line("stderr", faint.Render(exit.StderrTail))
		}
	}

	if report.CacheKey.Provenance == cachekey.ProvenanceNone {
		line("cache key", bad.Render("none (tokens are not persisted)"))
	} else {
		line("cache key", fmt.Sprintf("%s %s", good.Render(string(report.CacheKey.Provenance)), faint.Render(report.CacheKey.Fingerprint)))
	}
}
