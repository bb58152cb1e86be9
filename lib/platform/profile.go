// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import "runtime"

// VersionManager describes a tool that keeps several runtime versions
// side by side under one base directory, e.g. nvm's
// ~/.nvm/versions/node/<version>/bin/node.
type VersionManager struct {
	// Name identifies the manager in logs ("nvm", "fnm", ...).
	Name string

	// Base is the directory whose children are version directories.
	// May contain ${VAR} references; ${HOME} is always available.
	Base string

	// Executable is the runtime path relative to a version directory.
	Executable string
}

// Profile is the platform-specific configuration for locating and
// launching the sidecar worker.
type Profile struct {
	// OS is the GOOS value this profile was built for.
	OS string

	// RuntimeName is the command name of the runtime as it would be
	// found on PATH.
	RuntimeName string

	// VersionArgument is the trivial argument used to check that the
	// runtime on PATH actually runs.
	VersionArgument string

	// StandardPaths are absolute runtime locations probed in order
	// when the runtime is not on PATH. May contain ${VAR} references.
	StandardPaths []string

	// VersionManagers are probed in order after StandardPaths.
	VersionManagers []VersionManager

	// SearchPath lists directories appended to the worker's PATH so
	// it can find auxiliary command-line tools (the Azure CLI) when
	// the shell was launched from a desktop environment with a
	// minimal PATH.
	SearchPath []string

	// ResourceRoot is the packaged resource directory relative to the
	// executable's directory, for platforms whose bundles separate
	// executables from resources. Empty when resources sit next to
	// the executable.
	ResourceRoot string

	// InstallHint is appended to the runtime-not-found message.
	InstallHint string

	// ConsoleSuppressible reports whether spawning a child can pop a
	// console window that should be hidden.
	ConsoleSuppressible bool
}

// Current returns the profile for the running operating system.
func Current() Profile {
	return For(runtime.GOOS)
}

// For returns the profile for the given GOOS value. Unknown systems get
// the Linux profile, which makes no assumptions beyond a POSIX layout.
func For(goos string) Profile {
	switch goos {
	case "darwin":
		return Profile{
			OS:              goos,
			RuntimeName:     "node",
			VersionArgument: "--version",
			StandardPaths: []string{
				"/usr/local/bin/node",
				"/opt/homebrew/bin/node",
				"/usr/bin/node",
			},
			VersionManagers: []VersionManager{
				{Name: "nvm", Base: "${NVM_DIR:-${HOME}/.nvm}/versions/node", Executable: "bin/node"},
				{Name: "fnm", Base: "${HOME}/Library/Application Support/fnm/node-versions", Executable: "installation/bin/node"},
				{Name: "volta", Base: "${HOME}/.volta/tools/image/node", Executable: "bin/node"},
				{Name: "asdf", Base: "${HOME}/.asdf/installs/nodejs", Executable: "bin/node"},
			},
			SearchPath:   []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/local/sbin"},
			ResourceRoot: "../Resources",
			InstallHint:  "On macOS, you may need to install via Homebrew: brew install node",
		}
	case "windows":
		return Profile{
			OS:              goos,
			RuntimeName:     "node.exe",
			VersionArgument: "--version",
			StandardPaths: []string{
				`${ProgramFiles}\nodejs\node.exe`,
				`${ProgramFiles(x86)}\nodejs\node.exe`,
				`${LOCALAPPDATA}\Programs\nodejs\node.exe`,
			},
			VersionManagers: []VersionManager{
				{Name: "nvm", Base: `${NVM_HOME:-${APPDATA}\nvm}`, Executable: "node.exe"},
				{Name: "fnm", Base: `${APPDATA}\fnm\node-versions`, Executable: `installation\node.exe`},
				{Name: "volta", Base: `${LOCALAPPDATA}\Volta\tools\image\node`, Executable: "node.exe"},
			},
			InstallHint:         "On Windows, install the LTS release: winget install OpenJS.NodeJS.LTS",
			ConsoleSuppressible: true,
		}
	default:
		return Profile{
			OS:              goos,
			RuntimeName:     "node",
			VersionArgument: "--version",
			StandardPaths: []string{
				"/usr/local/bin/node",
				"/usr/bin/node",
				"/snap/bin/node",
			},
			VersionManagers: []VersionManager{
				{Name: "nvm", Base: "${NVM_DIR:-${HOME}/.nvm}/versions/node", Executable: "bin/node"},
				{Name: "fnm", Base: "${XDG_DATA_HOME:-${HOME}/.local/share}/fnm/node-versions", Executable: "installation/bin/node"},
				{Name: "volta", Base: "${HOME}/.volta/tools/image/node", Executable: "bin/node"},
				{Name: "asdf", Base: "${HOME}/.asdf/installs/nodejs", Executable: "bin/node"},
			},
			SearchPath:  []string{"/usr/local/bin", "/usr/bin", "/bin"},
			InstallHint: "On Linux, install Node.js with your distribution's package manager or from https://nodejs.org",
		}
	}
}

// IsWindows reports whether the profile targets Windows.
func (p Profile) IsWindows() bool {
	return p.OS == "windows"
}
