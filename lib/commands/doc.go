// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands is the operation surface the GUI invokes. Each
// operation makes sure the sidecar has been started, then forwards one
// RPC with a fixed method name and camelCase parameters, returning the
// worker's result untouched. Absent optional parameters are sent as
// JSON null.
//
// Two operations do not touch the RPC channel: [Surface.SidecarHealth]
// reports supervisor state with a machine-readable error code for the
// actionable startup failures, and [Surface.Exit] terminates the
// application with status 0.
//
// [Server] exposes the surface to a GUI process as newline-delimited
// JSON-RPC 2.0 on stdin and stdout, keyed by the GUI's invoke names
// ("acquire_user_token", "get_sidecar_health", "exit_app", ...).
package commands
