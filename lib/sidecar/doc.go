// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sidecar supervises the single long-lived worker process that
// performs authentication on the shell's behalf, and carries JSON-RPC
// 2.0 requests to it over the worker's stdin and stdout.
//
// # Lifecycle
//
// [Manager.Start] resolves the entry script and the runtime, spawns
// "<runtime> <script>" with the [Environment] contract applied, and
// records the child's PID and start time. Start is idempotent while the
// child is alive. A failed start leaves the manager in [StateFailed]
// with a [*StartError] describing the cause; the next Start retries.
// Nothing restarts a crashed child automatically: the exit is recorded
// for [Manager.Health] and the state returns to [StateNotStarted].
//
// # Channel
//
// Each [Manager.Call] writes one request line, flushes, and reads
// exactly one response line. Request ids start at 1 and increase for
// the lifetime of the Manager. A single channel guard serializes Start
// and Call, so the request/response pairing on the pipes can never
// interleave. Callers queue in arrival order and may abandon the queue
// through their context; once a call owns the guard it runs to
// completion with no timeout. A hung worker therefore stalls every
// caller until [Manager.Close] kills it.
//
// # Errors
//
// Every failure is typed: [*StartError] (with a [StartErrorKind] that
// health reporting maps to machine codes), [*NotStartedError],
// [*ChannelError] (one [ChannelOp] per pipeline stage, never retried),
// and [*RemoteError] for an error object returned by the worker, whose
// message is passed through verbatim.
package sidecar
