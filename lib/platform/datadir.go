// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDir returns the per-application data directory for identity,
// matching where the desktop framework keeps application data:
//
//   - macOS: ~/Library/Application Support/<identity>
//   - Windows: %APPDATA%\<identity>
//   - Linux and others: ${XDG_DATA_HOME:-~/.local/share}/<identity>
//
// The directory is not created.
func (p Profile) DataDir(identity string, lookup Lookup) (string, error) {
	if identity == "" {
		return "", fmt.Errorf("application identity is empty")
	}
	if lookup == nil {
		lookup = EnvironmentLookup
	}

	switch p.OS {
	case "darwin":
		home, err := homeDir(lookup)
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", identity), nil
	case "windows":
		appData := lookup("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA is not set")
		}
		return filepath.Join(appData, identity), nil
	default:
		if dataHome := lookup("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, identity), nil
		}
		home, err := homeDir(lookup)
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", identity), nil
	}
}

func homeDir(lookup Lookup) (string, error) {
	if home := lookup("HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return home, nil
}
