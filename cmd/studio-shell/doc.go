// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Studio-shell hosts the Entra Token Studio authentication worker. It
// provisions the token cache key, locates the Node.js runtime and the
// sidecar entry script, supervises the worker process, and relays
// JSON-RPC calls to it.
//
// Subcommands:
//
//   - serve: run the GUI bridge on stdin/stdout
//   - call: send one call to the worker and print the result
//   - health: start the worker and report its state
//   - key: inspect, escrow, or restore the cache key
//   - version: print build information
package main
