// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package locate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/tokenstudio/lib/platform"
)

// DefaultScript is the entry script path relative to the application
// root.
const DefaultScript = "sidecar/dist/index.js"

// ScriptLocator finds the worker entry script relative to the running
// executable.
type ScriptLocator struct {
	Profile platform.Profile

	// Relative is the slash-separated script path. Defaults to
	// DefaultScript.
	Relative string

	// Executable returns the running executable's path. Defaults to
	// os.Executable.
	Executable func() (string, error)
}

// Find returns the first existing candidate. Packaged locations are
// checked before the development ancestor walk.
func (l *ScriptLocator) Find() (string, error) {
	relative := l.Relative
	if relative == "" {
		relative = DefaultScript
	}
	relative = filepath.FromSlash(relative)

	executable := l.Executable
	if executable == nil {
		executable = os.Executable
	}
	executablePath, err := executable()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExecutablePath, err)
	}
	executableDirectory := filepath.Dir(executablePath)

	var checked []string
	try := func(path string) bool {
		checked = append(checked, path)
		info, err := os.Stat(path)
		return err == nil && !info.IsDir()
	}

	var packaged []string
	if l.Profile.ResourceRoot != "" {
		packaged = append(packaged, filepath.Join(executableDirectory, filepath.FromSlash(l.Profile.ResourceRoot), relative))
	}
	packaged = append(packaged, filepath.Join(executableDirectory, relative))
	for _, candidate := range packaged {
		if try(candidate) {
			return candidate, nil
		}
	}

	// Development: target/debug/<exe> or similar under the checkout.
	directory := executableDirectory
	for {
		candidate := filepath.Join(directory, relative)
		if candidate != packaged[len(packaged)-1] && try(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(directory)
		if parent == directory {
			break
		}
		directory = parent
	}

	return "", &ScriptNotFoundError{Relative: filepath.ToSlash(relative), Checked: checked}
}
