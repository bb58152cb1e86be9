// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sidecar

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/tokenstudio/lib/cachekey"
	"github.com/bureau-foundation/tokenstudio/lib/platform"
)

func lookupEnv(environment []string, name string) (string, bool) {
	for _, entry := range environment {
		if key, value, ok := strings.Cut(entry, "="); ok && key == name {
			return value, true
		}
	}
	return "", false
}

func TestEnvironment_Apply(t *testing.T) {
	separator := ":"
	base := []string{
		"HOME=/home/dev",
		EnvDataDir + "=/stale",
		"PATH=/usr/bin" + separator + "/bin",
	}
	original := slices.Clone(base)

	environment := Environment{
		DataDir:        "/data/studio",
		CacheKey:       "a2V5",
		CacheKeySource: cachekey.ProvenanceKeyring,
		SearchPath:     []string{"/usr/local/bin", "/usr/bin", "/bin"},
	}
	applied := environment.Apply(base)

	if !slices.Equal(base, original) {
		t.Errorf("Apply modified its input: %v", base)
	}
	expectations := map[string]string{
		"HOME":            "/home/dev",
		EnvDataDir:        "/data/studio",
		EnvCacheKey:       "a2V5",
		EnvCacheKeySource: "keyring",
		"PATH":            "/usr/bin" + separator + "/bin" + separator + "/usr/local/bin",
	}
	for name, want := range expectations {
		if got, _ := lookupEnv(applied, name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	count := 0
	for _, entry := range applied {
		if strings.HasPrefix(entry, EnvDataDir+"=") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("%s appears %d times, want 1", EnvDataDir, count)
	}
}

func TestEnvironment_NoCacheKey(t *testing.T) {
	environment := NewEnvironment("/data", cachekey.None(), platform.For("linux"))
	applied := environment.Apply(nil)

	if _, present := lookupEnv(applied, EnvCacheKey); present {
		t.Errorf("%s set without a key", EnvCacheKey)
	}
	if source, _ := lookupEnv(applied, EnvCacheKeySource); source != "none" {
		t.Errorf("%s = %q, want none", EnvCacheKeySource, source)
	}
	path, _ := lookupEnv(applied, "PATH")
	if path != strings.Join(platform.For("linux").SearchPath, ":") {
		t.Errorf("PATH = %q, want the profile search path", path)
	}
}

func TestEnvironment_WindowsPathCaseInsensitive(t *testing.T) {
	environment := Environment{
		DataDir:    `C:\Users\dev\AppData\Roaming\studio`,
		SearchPath: []string{`C:\Tools`},
		Windows:    true,
	}
	applied := environment.Apply([]string{`Path=C:\Windows`})

	if _, present := lookupEnv(applied, "PATH"); present {
		t.Error("Apply added PATH alongside the existing Path")
	}
	path, _ := lookupEnv(applied, "Path")
	if path != `C:\Windows;C:\Tools` {
		t.Errorf("Path = %q", path)
	}
}

func TestStderrLog(t *testing.T) {
	log := &stderrLog{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	log.Write([]byte("first line\npartial"))
	log.Write([]byte(" rest\n"))
	if tail := log.Tail(); tail != "first line\npartial rest\n" {
		t.Errorf("Tail() = %q", tail)
	}

	log.Write([]byte(strings.Repeat("x", stderrTailSize+100)))
	tail := log.Tail()
	if len(tail) != stderrTailSize || strings.Contains(tail, "first line") {
		t.Errorf("Tail() kept %d bytes, want the last %d", len(tail), stderrTailSize)
	}
}
