// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the entrypoint error handler for
// studio-shell. [Fatal] reports an error from run() on stderr, where
// the structured logger may not be initialized yet, and exits.
package process
