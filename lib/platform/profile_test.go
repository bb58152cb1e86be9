// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"path/filepath"
	"testing"
)

func mapLookup(values map[string]string) Lookup {
	return func(name string) string { return values[name] }
}

func TestForDarwinSeparatesResources(t *testing.T) {
	profile := For("darwin")
	if profile.ResourceRoot != "../Resources" {
		t.Errorf("ResourceRoot = %q, want ../Resources", profile.ResourceRoot)
	}
	if profile.RuntimeName != "node" {
		t.Errorf("RuntimeName = %q, want node", profile.RuntimeName)
	}
	if profile.ConsoleSuppressible {
		t.Error("darwin profile should not suppress consoles")
	}
	if len(profile.SearchPath) == 0 || profile.SearchPath[0] != "/opt/homebrew/bin" {
		t.Errorf("SearchPath = %v, want /opt/homebrew/bin first", profile.SearchPath)
	}
}

func TestForWindows(t *testing.T) {
	profile := For("windows")
	if !profile.IsWindows() {
		t.Fatal("IsWindows() = false")
	}
	if profile.RuntimeName != "node.exe" {
		t.Errorf("RuntimeName = %q, want node.exe", profile.RuntimeName)
	}
	if !profile.ConsoleSuppressible {
		t.Error("windows profile should suppress consoles")
	}
	if len(profile.SearchPath) != 0 {
		t.Errorf("SearchPath = %v, want none on windows", profile.SearchPath)
	}
}

func TestForUnknownFallsBackToLinuxLayout(t *testing.T) {
	profile := For("plan9")
	if profile.OS != "plan9" {
		t.Errorf("OS = %q, want plan9", profile.OS)
	}
	if profile.ResourceRoot != "" {
		t.Errorf("ResourceRoot = %q, want empty", profile.ResourceRoot)
	}
	if len(profile.VersionManagers) == 0 || profile.VersionManagers[0].Name != "nvm" {
		t.Errorf("VersionManagers = %v, want nvm first", profile.VersionManagers)
	}
}

func TestExpand(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"HOME":    "/home/dev",
		"NVM_DIR": "",
		"APPDATA": `C:\Users\dev\AppData\Roaming`,
	})

	tests := []struct {
		input    string
		want     string
		complete bool
	}{
		{"${HOME}/.volta", "/home/dev/.volta", true},
		{"${NVM_DIR:-${HOME}/.nvm}/versions/node", "/home/dev/.nvm/versions/node", true},
		{`${APPDATA}\fnm`, `C:\Users\dev\AppData\Roaming\fnm`, true},
		{"${MISSING}/node", "/node", false},
		{"${MISSING:-}/node", "/node", true},
		{"/usr/bin/node", "/usr/bin/node", true},
	}
	for _, test := range tests {
		got, complete := Expand(test.input, lookup)
		if got != test.want || complete != test.complete {
			t.Errorf("Expand(%q) = (%q, %v), want (%q, %v)", test.input, got, complete, test.want, test.complete)
		}
	}
}

func TestWithHomeOverridesHome(t *testing.T) {
	lookup := WithHome("/tmp/fakehome", mapLookup(map[string]string{"HOME": "/home/real", "OTHER": "x"}))
	if got := lookup("HOME"); got != "/tmp/fakehome" {
		t.Errorf("HOME = %q, want /tmp/fakehome", got)
	}
	if got := lookup("OTHER"); got != "x" {
		t.Errorf("OTHER = %q, want x", got)
	}
}

func TestDataDir(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"HOME":    "/home/dev",
		"APPDATA": "/appdata",
	})

	tests := []struct {
		goos string
		want string
	}{
		{"darwin", filepath.Join("/home/dev", "Library", "Application Support", "com.example.studio")},
		{"windows", filepath.Join("/appdata", "com.example.studio")},
		{"linux", filepath.Join("/home/dev", ".local", "share", "com.example.studio")},
	}
	for _, test := range tests {
		got, err := For(test.goos).DataDir("com.example.studio", lookup)
		if err != nil {
			t.Fatalf("%s: DataDir: %v", test.goos, err)
		}
		if got != test.want {
			t.Errorf("%s: DataDir = %q, want %q", test.goos, got, test.want)
		}
	}
}

func TestDataDirHonoursXDGDataHome(t *testing.T) {
	lookup := mapLookup(map[string]string{"XDG_DATA_HOME": "/xdg"})
	got, err := For("linux").DataDir("app", lookup)
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if got != filepath.Join("/xdg", "app") {
		t.Errorf("DataDir = %q, want /xdg/app", got)
	}
}

func TestDataDirRejectsEmptyIdentity(t *testing.T) {
	if _, err := For("linux").DataDir("", nil); err == nil {
		t.Fatal("expected error for empty identity")
	}
}
