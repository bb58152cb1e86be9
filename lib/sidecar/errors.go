// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sidecar

import (
	"encoding/json"
	"errors"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("sidecar manager closed")

// StartErrorKind classifies a failed start.
type StartErrorKind string

const (
	KindRuntimeNotFound StartErrorKind = "runtime_not_found"
	KindScriptNotFound  StartErrorKind = "script_not_found"
	KindSpawnFailed     StartErrorKind = "spawn_failed"
	KindExecutablePath  StartErrorKind = "executable_path"
)

// StartError records why the worker could not be started. Its message
// is the underlying locator message, which is written for end users.
type StartError struct {
	Kind StartErrorKind
	Err  error
}

func (e *StartError) Error() string {
	if e.Kind == KindSpawnFailed {
		return "failed to spawn sidecar: " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *StartError) Unwrap() error { return e.Err }

// NotStartedError is returned by Call when no worker is running. Reason
// is the most recent start failure, if any.
type NotStartedError struct {
	Reason error
}

func (e *NotStartedError) Error() string {
	if e.Reason == nil {
		return "sidecar not started"
	}
	return "sidecar not started: " + e.Reason.Error()
}

func (e *NotStartedError) Unwrap() error { return e.Reason }

// ChannelOp names the stage of a call that failed.
type ChannelOp string

const (
	OpSerialize ChannelOp = "serialize"
	OpWrite     ChannelOp = "write"
	OpFlush     ChannelOp = "flush"
	OpRead      ChannelOp = "read"
	OpParse     ChannelOp = "parse"
)

var channelOpMessages = map[ChannelOp]string{
	OpSerialize: "failed to serialize request",
	OpWrite:     "failed to write to sidecar",
	OpFlush:     "failed to flush sidecar input",
	OpRead:      "failed to read from sidecar",
	OpParse:     "failed to parse sidecar response",
}

// ChannelError is a transport failure between the shell and the worker.
type ChannelError struct {
	Op  ChannelOp
	Err error
}

func (e *ChannelError) Error() string {
	return channelOpMessages[e.Op] + ": " + e.Err.Error()
}

func (e *ChannelError) Unwrap() error { return e.Err }

// RemoteError is an error object returned by the worker.
type RemoteError struct {
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *RemoteError) Error() string { return e.Message }
