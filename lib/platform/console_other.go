// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package platform

import "os/exec"

// HideConsole is a no-op: only Windows attaches console windows to
// child processes.
func HideConsole(*exec.Cmd) {}
