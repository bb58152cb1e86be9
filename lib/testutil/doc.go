// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so a hung sidecar or a lost response fails the test instead
// of stalling the run. [Logger] returns a slog.Logger that writes through t.Log, so
// supervisor and bridge logs appear only for failing tests.
// [UniqueID] names entries in process-wide stores such as the mock
// keyring.
//
// This package has no tokenstudio-internal dependencies.
package testutil
