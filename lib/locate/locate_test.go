// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package locate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bureau-foundation/tokenstudio/lib/platform"
	"github.com/bureau-foundation/tokenstudio/lib/testutil"
)

func failingProbe(context.Context, string, ...string) error {
	return errors.New("executable file not found in $PATH")
}

func writeFile(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), mode); err != nil {
		t.Fatal(err)
	}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix execute bits")
	}
}

func testLocator(t *testing.T, root string) *RuntimeLocator {
	return &RuntimeLocator{
		Profile: platform.Profile{
			OS:              "linux",
			RuntimeName:     "node",
			VersionArgument: "--version",
			StandardPaths: []string{
				"${UNSET_INSTALL_ROOT}/node",
				"${ROOT}/usr/local/bin/node",
				"${ROOT}/usr/bin/node",
			},
			VersionManagers: []platform.VersionManager{
				{Name: "nvm", Base: "${ROOT}/nvm/versions/node", Executable: "bin/node"},
				{Name: "volta", Base: "${ROOT}/volta/tools/image/node", Executable: "bin/node"},
			},
			InstallHint: "Try your package manager.",
		},
		Lookup: func(name string) string {
			if name == "ROOT" {
				return root
			}
			return ""
		},
		Probe:  failingProbe,
		Logger: testutil.Logger(t),
	}
}

func TestRuntimeLocator_PathProbeWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "usr/bin/node"), 0755)

	locator := testLocator(t, root)
	var probed []string
	locator.Probe = func(_ context.Context, executable string, args ...string) error {
		probed = append([]string{executable}, args...)
		return nil
	}

	path, err := locator.Find(context.Background())
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if path != "node" {
		t.Errorf("Find() = %q, want bare name %q", path, "node")
	}
	if strings.Join(probed, " ") != "node --version" {
		t.Errorf("probe ran %q, want %q", probed, "node --version")
	}
}

func TestRuntimeLocator_StandardPathsInOrder(t *testing.T) {
	skipOnWindows(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "usr/local/bin/node"), 0644)
	writeFile(t, filepath.Join(root, "usr/bin/node"), 0755)

	path, err := testLocator(t, root).Find(context.Background())
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	want := filepath.Join(root, "usr/bin/node")
	if path != want {
		t.Errorf("Find() = %q, want %q (non-executable file must be skipped)", path, want)
	}
}

func TestRuntimeLocator_VersionManager(t *testing.T) {
	skipOnWindows(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "nvm/versions/node/v16.0.0"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "nvm/versions/node/stray-file"), 0755)
	writeFile(t, filepath.Join(root, "nvm/versions/node/v20.11.1/bin/node"), 0755)
	writeFile(t, filepath.Join(root, "volta/tools/image/node/18.0.0/bin/node"), 0755)

	path, err := testLocator(t, root).Find(context.Background())
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	want := filepath.Join(root, "nvm/versions/node/v20.11.1/bin/node")
	if path != want {
		t.Errorf("Find() = %q, want %q", path, want)
	}
}

func TestRuntimeLocator_NotFound(t *testing.T) {
	root := t.TempDir()

	_, err := testLocator(t, root).Find(context.Background())

	var notFound *RuntimeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Find() error = %v, want *RuntimeNotFoundError", err)
	}
	if !strings.HasPrefix(err.Error(), RuntimeNotFoundMarker) {
		t.Errorf("message %q does not start with %q", err.Error(), RuntimeNotFoundMarker)
	}
	if !strings.Contains(err.Error(), "Try your package manager.") {
		t.Errorf("message %q does not carry the install hint", err.Error())
	}
	for _, checked := range notFound.Checked {
		if strings.Contains(checked, "UNSET_INSTALL_ROOT") || strings.HasPrefix(checked, "/node") {
			t.Errorf("path with an unset variable was probed: %q", checked)
		}
	}
	if len(notFound.Checked) != 2 {
		t.Errorf("Checked = %v, want the two expandable standard paths", notFound.Checked)
	}
}

func TestRuntimeLocator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	locator := testLocator(t, t.TempDir())
	locator.Probe = func(ctx context.Context, _ string, _ ...string) error { return ctx.Err() }

	if _, err := locator.Find(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Find() error = %v, want context.Canceled", err)
	}
}

func TestFixedRuntime(t *testing.T) {
	path, err := FixedRuntime("/opt/node/bin/node").Find(context.Background())
	if err != nil || path != "/opt/node/bin/node" {
		t.Errorf("Find() = %q, %v", path, err)
	}
}

func executableAt(path string) func() (string, error) {
	return func() (string, error) { return path, nil }
}

func TestScriptLocator_MacBundleResources(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "Studio.app/Contents/Resources/sidecar/dist/index.js")
	writeFile(t, script, 0644)
	writeFile(t, filepath.Join(root, "Studio.app/Contents/MacOS/sidecar/dist/index.js"), 0644)

	locator := &ScriptLocator{
		Profile:    platform.For("darwin"),
		Executable: executableAt(filepath.Join(root, "Studio.app/Contents/MacOS/studio")),
	}
	path, err := locator.Find()
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if path != script {
		t.Errorf("Find() = %q, want %q", path, script)
	}
}

func TestScriptLocator_BesideExecutable(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "sidecar/dist/index.js")
	writeFile(t, script, 0644)

	locator := &ScriptLocator{
		Profile:    platform.For("linux"),
		Executable: executableAt(filepath.Join(root, "studio")),
	}
	path, err := locator.Find()
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if path != script {
		t.Errorf("Find() = %q, want %q", path, script)
	}
}

func TestScriptLocator_DevelopmentAncestor(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "sidecar/dist/index.js")
	writeFile(t, script, 0644)

	locator := &ScriptLocator{
		Profile:    platform.For("linux"),
		Executable: executableAt(filepath.Join(root, "src-tauri/target/debug/studio")),
	}
	path, err := locator.Find()
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if path != script {
		t.Errorf("Find() = %q, want %q", path, script)
	}
}

func TestScriptLocator_NotFound(t *testing.T) {
	root := t.TempDir()
	executable := filepath.Join(root, "bin/studio")

	locator := &ScriptLocator{
		Profile:    platform.For("darwin"),
		Executable: executableAt(executable),
	}
	_, err := locator.Find()

	var notFound *ScriptNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Find() error = %v, want *ScriptNotFoundError", err)
	}
	if !strings.HasPrefix(err.Error(), ScriptNotFoundMarker) {
		t.Errorf("message %q does not start with %q", err.Error(), ScriptNotFoundMarker)
	}
	resources := filepath.Join(root, "Resources/sidecar/dist/index.js")
	if notFound.Checked[0] != resources {
		t.Errorf("first checked path = %q, want %q", notFound.Checked[0], resources)
	}
	for _, checked := range notFound.Checked {
		if !strings.Contains(err.Error(), checked) {
			t.Errorf("message does not list checked path %q", checked)
		}
	}
	seen := make(map[string]bool)
	for _, checked := range notFound.Checked {
		if seen[checked] {
			t.Errorf("path %q checked twice", checked)
		}
		seen[checked] = true
	}
}

func TestScriptLocator_ExecutablePathError(t *testing.T) {
	locator := &ScriptLocator{
		Executable: func() (string, error) { return "", errors.New("procfs unavailable") },
	}
	if _, err := locator.Find(); !errors.Is(err, ErrExecutablePath) {
		t.Errorf("Find() error = %v, want ErrExecutablePath", err)
	}
}

func TestFixedScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "worker.js")
	if _, err := FixedScript(script).Find(); err == nil {
		t.Error("Find() of a missing script should fail")
	}
	writeFile(t, script, 0644)
	if path, err := FixedScript(script).Find(); err != nil || path != script {
		t.Errorf("Find() = %q, %v", path, err)
	}
}
