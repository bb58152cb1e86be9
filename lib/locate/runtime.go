// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package locate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/tokenstudio/lib/platform"
)

// DefaultProbeTimeout bounds the PATH --version probe.
const DefaultProbeTimeout = 5 * time.Second

// Prober runs executable with args and reports whether it succeeded.
type Prober func(ctx context.Context, executable string, args ...string) error

// RuntimeLocator finds the Node.js runtime for a platform profile.
type RuntimeLocator struct {
	Profile platform.Profile

	// Lookup resolves ${VAR} references in profile paths. Defaults to
	// the process environment.
	Lookup platform.Lookup

	// Probe runs the PATH check. Defaults to executing the command with
	// output discarded.
	Probe Prober

	// ProbeTimeout defaults to DefaultProbeTimeout.
	ProbeTimeout time.Duration

	Logger *slog.Logger
}

func (l *RuntimeLocator) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return l.Logger
}

// Find returns the runtime to execute: the bare runtime name when it is
// on PATH, otherwise an absolute path.
func (l *RuntimeLocator) Find(ctx context.Context) (string, error) {
	logger := l.logger()
	name := l.Profile.RuntimeName

	probe := l.Probe
	if probe == nil {
		probe = l.runProbe
	}
	timeout := l.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	probeContext, cancel := context.WithTimeout(ctx, timeout)
	err := probe(probeContext, name, l.Profile.VersionArgument)
	cancel()
	if err == nil {
		logger.Debug("runtime found on PATH", "runtime", name)
		return name, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	logger.Debug("runtime not usable from PATH", "runtime", name, "error", err)

	var checked []string

	for _, candidate := range l.Profile.StandardPaths {
		path, ok := platform.Expand(candidate, l.Lookup)
		if !ok {
			continue
		}
		checked = append(checked, path)
		if l.usable(path) {
			logger.Debug("runtime found at standard path", "path", path)
			return path, nil
		}
	}

	for _, manager := range l.Profile.VersionManagers {
		base, ok := platform.Expand(manager.Base, l.Lookup)
		if !ok {
			continue
		}
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path := filepath.Join(base, entry.Name(), filepath.FromSlash(manager.Executable))
			checked = append(checked, path)
			if l.usable(path) {
				logger.Debug("runtime found via version manager", "manager", manager.Name, "path", path)
				return path, nil
			}
		}
	}

	return "", &RuntimeNotFoundError{Hint: l.Profile.InstallHint, Checked: checked}
}

func (l *RuntimeLocator) runProbe(ctx context.Context, executable string, args ...string) error {
	cmd := exec.CommandContext(ctx, executable, args...)
	if l.Profile.ConsoleSuppressible {
		platform.HideConsole(cmd)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s %v: %w", executable, args, err)
	}
	return nil
}

// usable reports whether path is a regular file the process could
// execute. Windows has no execute bit.
func (l *RuntimeLocator) usable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if l.Profile.IsWindows() {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// FixedRuntime is a runtime configured explicitly.
type FixedRuntime string

// Find returns the configured runtime without probing it.
func (r FixedRuntime) Find(context.Context) (string, error) {
	return string(r), nil
}

// FixedScript is an entry script configured explicitly.
type FixedScript string

// Find returns the configured script if it exists.
func (s FixedScript) Find() (string, error) {
	info, err := os.Stat(string(s))
	if err != nil || info.IsDir() {
		return "", &ScriptNotFoundError{Relative: filepath.Base(string(s)), Checked: []string{string(s)}}
	}
	return string(s), nil
}
