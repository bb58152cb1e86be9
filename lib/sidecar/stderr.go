// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sidecar

import (
	"bytes"
	"log/slog"
	"sync"
)

// stderrTailSize bounds the stderr kept for crash reports.
const stderrTailSize = 4096

// stderrLog receives the worker's stderr. Complete lines go to the debug
// log, and the most recent bytes are kept for health reporting.
type stderrLog struct {
	mu      sync.Mutex
	logger  *slog.Logger
	pid     int
	partial []byte
	tail    []byte
}

func (s *stderrLog) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tail = append(s.tail, p...)
	if excess := len(s.tail) - stderrTailSize; excess > 0 {
		s.tail = append(s.tail[:0], s.tail[excess:]...)
	}

	s.partial = append(s.partial, p...)
	for {
		newline := bytes.IndexByte(s.partial, '\n')
		if newline < 0 {
			break
		}
		line := bytes.TrimRight(s.partial[:newline], "\r")
		if len(line) > 0 {
			s.logger.Debug("sidecar stderr", "pid", s.pid, "line", string(line))
		}
		s.partial = s.partial[newline+1:]
	}
	if len(s.partial) > stderrTailSize {
		s.partial = s.partial[len(s.partial)-stderrTailSize:]
	}
	return len(p), nil
}

func (s *stderrLog) setPID(pid int) {
	s.mu.Lock()
	s.pid = pid
	s.mu.Unlock()
}

// Tail returns the most recent stderr output.
func (s *stderrLog) Tail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.tail)
}
