// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
)

// Logger returns a debug-level slog.Logger that writes each record
// through t.Log. Records emitted after the test completes (from
// goroutines still draining a child process) are dropped.
func Logger(t testing.TB) *slog.Logger {
	t.Helper()
	writer := &testWriter{t: t}
	t.Cleanup(writer.stop)
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	mu      sync.Mutex
	t       testing.TB
	stopped bool
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stopped {
		w.t.Log(string(bytes.TrimRight(p, "\n")))
	}
	return len(p), nil
}

func (w *testWriter) stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
}
