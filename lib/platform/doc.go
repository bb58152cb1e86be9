// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform holds the per-operating-system facts the shell needs
// to find and launch the sidecar worker: the runtime executable name,
// standard install locations, version-manager layouts, extra search
// directories for the worker's PATH, the packaged resource layout, and
// whether to suppress a console window at spawn.
//
// A [Profile] is selected once at startup with [Current] (or [For] in
// tests) and passed by value to the locators and the supervisor. No
// other package branches on runtime.GOOS.
//
// [Expand] performs ${VAR} and ${VAR:-default} expansion on profile
// paths. [DataDir] resolves the per-application data directory the
// same way the desktop framework does on each platform. [HideConsole]
// applies the Windows CREATE_NO_WINDOW spawn flag.
//
// This package has no tokenstudio-internal dependencies.
package platform
