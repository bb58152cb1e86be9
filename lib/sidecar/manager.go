// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/tokenstudio/lib/clock"
	"github.com/bureau-foundation/tokenstudio/lib/locate"
	"github.com/bureau-foundation/tokenstudio/lib/platform"
)

// DefaultShutdownGrace is how long Close waits for the worker to exit
// after its stdin is closed before killing it.
const DefaultShutdownGrace = 2 * time.Second

// RuntimeFinder resolves the runtime executable.
type RuntimeFinder interface {
	Find(ctx context.Context) (string, error)
}

// ScriptFinder resolves the worker entry script.
type ScriptFinder interface {
	Find() (string, error)
}

// State is the supervisor state.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "not_started"
	}
}

// Config holds the parameters for a Manager.
type Config struct {
	Runtime RuntimeFinder
	Script  ScriptFinder

	Environment Environment

	// Args are passed to the runtime after the script path.
	Args []string

	// HideConsole suppresses the console window on Windows.
	HideConsole bool

	// ShutdownGrace defaults to DefaultShutdownGrace.
	ShutdownGrace time.Duration

	// Clock defaults to clock.Real.
	Clock clock.Clock

	// Logger defaults to a text handler on stderr.
	Logger *slog.Logger
}

// ExitInfo describes how a worker process ended.
type ExitInfo struct {
	PID int `json:"pid"`

	// Code is the exit status, or -1 when the process was killed by a
	// signal or could not be waited on.
	Code int `json:"code"`

	Error      string    `json:"error,omitempty"`
	StderrTail string    `json:"stderrTail,omitempty"`
	At         time.Time `json:"at"`
}

// Health is a snapshot of the supervisor.
type Health struct {
	State     State
	Running   bool
	PID       int
	StartedAt time.Time

	// LastError is the most recent start failure, cleared by a
	// successful start.
	LastError error

	// LastExit describes the most recent worker exit, if any.
	LastExit *ExitInfo
}

// Manager supervises one worker process and its RPC channel.
type Manager struct {
	config Config
	logger *slog.Logger
	clock  clock.Clock

	// guard is a one-slot semaphore held for the whole of every Start
	// and Call. Fields below it are owned by the guard holder.
	guard  chan struct{}
	worker *worker
	nextID uint64

	closed atomic.Bool

	// statusMu protects the snapshot read by Health and Close, which
	// must not wait behind a call in progress.
	statusMu sync.Mutex
	status   status
}

type status struct {
	state     State
	current   *worker
	lastError *StartError
	lastExit  *ExitInfo
}

// worker is a live child process.
type worker struct {
	cmd       *exec.Cmd
	pid       int
	startedAt time.Time
	stdin     *os.File
	stdout    *os.File
	channel   *channel
	stderr    *stderrLog
	closing   atomic.Bool

	// exited is closed once the process has been waited on.
	exited chan struct{}
}

// New creates a Manager. The worker is not started.
func New(config Config) (*Manager, error) {
	if config.Runtime == nil {
		return nil, fmt.Errorf("sidecar: Runtime finder is required")
	}
	if config.Script == nil {
		return nil, fmt.Errorf("sidecar: Script finder is required")
	}
	if config.ShutdownGrace <= 0 {
		config.ShutdownGrace = DefaultShutdownGrace
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	return &Manager{
		config: config,
		logger: logger,
		clock:  config.Clock,
		guard:  make(chan struct{}, 1),
	}, nil
}

// acquire takes the channel guard, or returns ctx's error if ctx ends
// while waiting.
func (m *Manager) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.guard <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	<-m.guard
}

// Start launches the worker unless one is already running.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()
	return m.startLocked(ctx)
}

// StartInBackground starts the worker on a new goroutine. The result is
// delivered on the returned channel, which is then closed; failures are
// also logged, so callers may ignore the channel.
func (m *Manager) StartInBackground(ctx context.Context) <-chan error {
	result := make(chan error, 1)
	go func() {
		defer close(result)
		err := m.Start(ctx)
		if err != nil {
			m.logger.Warn("background sidecar start failed", "error", err)
		}
		result <- err
	}()
	return result
}

func (m *Manager) startLocked(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.reapLocked()
	if m.worker != nil {
		return nil
	}

	script, err := m.config.Script.Find()
	if err != nil {
		kind := KindScriptNotFound
		if errors.Is(err, locate.ErrExecutablePath) {
			kind = KindExecutablePath
		}
		return m.failLocked(&StartError{Kind: kind, Err: err})
	}

	runtime, err := m.config.Runtime.Find(ctx)
	if err != nil {
		// An interrupted lookup is not a failure; the previous state
		// and its reason stand.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return m.failLocked(&StartError{Kind: KindRuntimeNotFound, Err: err})
	}

	spawned, err := m.spawn(runtime, script)
	if err != nil {
		return m.failLocked(&StartError{Kind: KindSpawnFailed, Err: err})
	}

	m.worker = spawned
	m.statusMu.Lock()
	m.status.state = StateRunning
	m.status.current = spawned
	m.status.lastError = nil
	m.statusMu.Unlock()

	m.logger.Info("sidecar started",
		"pid", spawned.pid,
		"runtime", runtime,
		"script", script,
		"cache_key_source", m.config.Environment.CacheKeySource,
	)
	return nil
}

func (m *Manager) failLocked(startError *StartError) error {
	m.statusMu.Lock()
	m.status.state = StateFailed
	m.status.lastError = startError
	m.statusMu.Unlock()

	m.logger.Warn("sidecar start failed", "kind", startError.Kind, "error", startError.Err)
	return startError
}

// spawn starts the child with parent-owned pipes, so waiting on the
// child never closes the ends the channel reads and writes.
func (m *Manager) spawn(runtime, script string) (*worker, error) {
	stdinReader, stdinWriter, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdoutReader, stdoutWriter, err := os.Pipe()
	if err != nil {
		stdinReader.Close()
		stdinWriter.Close()
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	stderr := &stderrLog{logger: m.logger}
	arguments := append([]string{script}, m.config.Args...)
	cmd := exec.Command(runtime, arguments...)
	cmd.Env = m.config.Environment.Apply(os.Environ())
	cmd.Stdin = stdinReader
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second
	if m.config.HideConsole {
		platform.HideConsole(cmd)
	}

	startErr := cmd.Start()
	// The child holds its own copies of these ends now.
	stdinReader.Close()
	stdoutWriter.Close()
	if startErr != nil {
		stdinWriter.Close()
		stdoutReader.Close()
		return nil, startErr
	}

	stderr.setPID(cmd.Process.Pid)
	spawned := &worker{
		cmd:       cmd,
		pid:       cmd.Process.Pid,
		startedAt: m.clock.Now(),
		stdin:     stdinWriter,
		stdout:    stdoutReader,
		channel:   newChannel(stdinWriter, stdoutReader),
		stderr:    stderr,
		exited:    make(chan struct{}),
	}
	go m.monitor(spawned)
	return spawned, nil
}

// monitor waits for the child to exit and records the exit.
func (m *Manager) monitor(w *worker) {
	waitErr := w.cmd.Wait()

	exit := &ExitInfo{
		PID:        w.pid,
		Code:       exitCode(waitErr),
		StderrTail: w.stderr.Tail(),
		At:         m.clock.Now(),
	}
	if waitErr != nil {
		exit.Error = waitErr.Error()
	}

	m.statusMu.Lock()
	if m.status.current == w {
		m.status.current = nil
		m.status.state = StateNotStarted
		m.status.lastExit = exit
	}
	m.statusMu.Unlock()

	if w.closing.Load() {
		m.logger.Info("sidecar stopped", "pid", w.pid, "exit_code", exit.Code)
	} else {
		m.logger.Warn("sidecar exited", "pid", w.pid, "exit_code", exit.Code, "error", waitErr)
	}
	close(w.exited)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// reapLocked releases the handle of a worker that has exited.
func (m *Manager) reapLocked() {
	if m.worker == nil {
		return
	}
	select {
	case <-m.worker.exited:
		m.worker.stdin.Close()
		m.worker.stdout.Close()
		m.worker = nil
	default:
	}
}

// Call sends method and params to the worker and returns the result. A
// response without result or error yields JSON null. ctx bounds only
// the wait for the channel guard.
func (m *Manager) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := m.acquire(ctx); err != nil {
		return nil, err
	}
	defer m.release()

	m.reapLocked()
	if m.worker == nil {
		m.statusMu.Lock()
		reason := m.status.lastError
		m.statusMu.Unlock()
		if reason == nil {
			return nil, &NotStartedError{}
		}
		return nil, &NotStartedError{Reason: reason}
	}

	m.nextID++
	id := m.nextID
	result, err := m.worker.channel.call(id, method, params)
	if err != nil {
		var remote *RemoteError
		if !errors.As(err, &remote) {
			m.logger.Warn("sidecar call failed", "method", method, "id", id, "error", err)
		}
		return nil, err
	}
	return result, nil
}

// Health returns a snapshot of the supervisor without waiting for a
// call in progress.
func (m *Manager) Health() Health {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()

	health := Health{State: m.status.state}
	if m.status.current != nil {
		health.Running = true
		health.PID = m.status.current.pid
		health.StartedAt = m.status.current.startedAt
	}
	if m.status.lastError != nil {
		health.LastError = m.status.lastError
	}
	if m.status.lastExit != nil {
		exit := *m.status.lastExit
		health.LastExit = &exit
	}
	return health
}

// Close stops the worker: its stdin is closed, and if it has not exited
// within the shutdown grace period it is killed. Later Starts fail with
// ErrClosed. Close is idempotent.
func (m *Manager) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	m.statusMu.Lock()
	current := m.status.current
	m.statusMu.Unlock()
	if current == nil {
		// A start in progress holds the guard and may still spawn.
		m.guard <- struct{}{}
		current = m.worker
		m.release()
		if current == nil {
			return nil
		}
	}

	current.closing.Store(true)
	current.stdin.Close()

	var killErr error
	select {
	case <-current.exited:
	case <-m.clock.After(m.config.ShutdownGrace):
		m.logger.Warn("sidecar did not exit after stdin closed, killing", "pid", current.pid)
		if err := current.cmd.Process.Kill(); err != nil {
			killErr = fmt.Errorf("killing sidecar: %w", err)
		}
		<-current.exited
	}

	// Any call that was blocked on the dead worker has now failed and
	// released the guard.
	m.guard <- struct{}{}
	m.reapLocked()
	m.release()
	return killErr
}
