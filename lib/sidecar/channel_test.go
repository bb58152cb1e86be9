// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sidecar

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
)

// pipeWorker runs serveHelper on in-process pipes and returns a channel
// connected to it.
type pipeWorker struct {
	channel     *channel
	stdinReader *io.PipeReader
	stdinWriter *io.PipeWriter
	done        chan int
}

func newPipeWorker(t *testing.T) *pipeWorker {
	t.Helper()
	stdinReader, stdinWriter := io.Pipe()
	stdoutReader, stdoutWriter := io.Pipe()

	worker := &pipeWorker{
		channel:     newChannel(stdinWriter, stdoutReader),
		stdinReader: stdinReader,
		stdinWriter: stdinWriter,
		done:        make(chan int, 1),
	}
	go func() {
		code := serveHelper(stdinReader, stdoutWriter, io.Discard)
		stdoutWriter.Close()
		stdinReader.Close()
		worker.done <- code
	}()
	t.Cleanup(func() { stdinWriter.Close() })
	return worker
}

func TestChannel_Ping(t *testing.T) {
	worker := newPipeWorker(t)

	result, err := worker.channel.call(1, "ping", map[string]any{})
	if err != nil {
		t.Fatalf("call(ping) error: %v", err)
	}
	if string(result) != `{"ok":true}` {
		t.Errorf("call(ping) = %s, want {\"ok\":true}", result)
	}
}

func TestChannel_RemoteError(t *testing.T) {
	worker := newPipeWorker(t)

	_, err := worker.channel.call(1, "boom", nil)

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("call(boom) error = %v, want *RemoteError", err)
	}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", err.Error(), "boom")
	}
	if remote.Code != -32000 {
		t.Errorf("Code = %d, want -32000", remote.Code)
	}
	if string(remote.Data) != `{"detail":"kaboom"}` {
		t.Errorf("Data = %s", remote.Data)
	}
}

func TestChannel_NullResultIsSuccess(t *testing.T) {
	worker := newPipeWorker(t)

	result, err := worker.channel.call(1, "void", nil)
	if err != nil {
		t.Fatalf("call(void) error: %v", err)
	}
	if string(result) != "null" {
		t.Errorf("call(void) = %s, want null", result)
	}
}

func TestChannel_ParamsRoundTrip(t *testing.T) {
	worker := newPipeWorker(t)
	params := map[string]any{"clientId": "abc", "scopes": []string{"User.Read"}, "prompt": nil}

	result, err := worker.channel.call(1, "echo", params)
	if err != nil {
		t.Fatalf("call(echo) error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(result, &decoded); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if decoded["clientId"] != "abc" {
		t.Errorf("clientId = %v, want abc", decoded["clientId"])
	}
	if value, present := decoded["prompt"]; !present || value != nil {
		t.Errorf("prompt = %v (present %v), want explicit null", value, present)
	}
}

func TestChannel_NilParamsSentAsEmptyObject(t *testing.T) {
	worker := newPipeWorker(t)

	result, err := worker.channel.call(1, "echo", nil)
	if err != nil {
		t.Fatalf("call(echo) error: %v", err)
	}
	if string(result) != "{}" {
		t.Errorf("call(echo, nil) params = %s, want {}", result)
	}
}

func TestChannel_ResponseID(t *testing.T) {
	worker := newPipeWorker(t)

	_, err := worker.channel.call(7, "wrong_id", nil)
	var channelErr *ChannelError
	if !errors.As(err, &channelErr) || channelErr.Op != OpParse {
		t.Fatalf("call(wrong_id) error = %v, want parse ChannelError", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to parse sidecar response") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "107") || !strings.Contains(err.Error(), "7") {
		t.Errorf("Error() = %q does not name both ids", err.Error())
	}

	result, err := worker.channel.call(8, "no_id", nil)
	if err != nil {
		t.Fatalf("call(no_id) error: %v", err)
	}
	if string(result) != "1" {
		t.Errorf("call(no_id) = %s, want 1", result)
	}
}

func TestChannel_Garbage(t *testing.T) {
	worker := newPipeWorker(t)

	_, err := worker.channel.call(1, "garbage", nil)
	var channelErr *ChannelError
	if !errors.As(err, &channelErr) || channelErr.Op != OpParse {
		t.Fatalf("call(garbage) error = %v, want parse ChannelError", err)
	}
}

func TestChannel_ReadAfterWorkerExit(t *testing.T) {
	worker := newPipeWorker(t)

	_, err := worker.channel.call(1, "exit", nil)
	var channelErr *ChannelError
	if !errors.As(err, &channelErr) || channelErr.Op != OpRead {
		t.Fatalf("call(exit) error = %v, want read ChannelError", err)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("error %v does not wrap io.EOF", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to read from sidecar") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestChannel_Serialize(t *testing.T) {
	worker := newPipeWorker(t)

	_, err := worker.channel.call(1, "echo", map[string]any{"bad": make(chan int)})
	var channelErr *ChannelError
	if !errors.As(err, &channelErr) || channelErr.Op != OpSerialize {
		t.Fatalf("error = %v, want serialize ChannelError", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to serialize request") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestChannel_WriteAndFlushFailures(t *testing.T) {
	tests := []struct {
		name   string
		params any
		op     ChannelOp
		prefix string
	}{
		{"small request fails on flush", nil, OpFlush, "failed to flush sidecar input"},
		{"large request fails on write", strings.Repeat("x", 8192), OpWrite, "failed to write to sidecar"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			worker := newPipeWorker(t)
			gone := errors.New("worker stdin closed")
			worker.stdinReader.CloseWithError(gone)

			_, err := worker.channel.call(1, "echo", test.params)

			var channelErr *ChannelError
			if !errors.As(err, &channelErr) || channelErr.Op != test.op {
				t.Fatalf("error = %v, want %s ChannelError", err, test.op)
			}
			if !errors.Is(err, gone) {
				t.Errorf("error %v does not wrap the pipe error", err)
			}
			if !strings.HasPrefix(err.Error(), test.prefix) {
				t.Errorf("Error() = %q, want prefix %q", err.Error(), test.prefix)
			}
		})
	}
}
