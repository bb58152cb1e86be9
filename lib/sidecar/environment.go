// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sidecar

import (
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/tokenstudio/lib/cachekey"
	"github.com/bureau-foundation/tokenstudio/lib/platform"
)

// Variables the worker reads at startup.
const (
	EnvDataDir        = "ENTRA_TOKEN_STUDIO_DATA_DIR"
	EnvCacheKey       = "ENTRA_TOKEN_STUDIO_CACHE_KEY"
	EnvCacheKeySource = "ENTRA_TOKEN_STUDIO_CACHE_KEY_SOURCE"
)

// Environment is the contract passed to every worker spawn. It is built
// once before the first spawn and never modified.
type Environment struct {
	DataDir string

	// CacheKey is the base64 cache key, empty when none was provisioned.
	CacheKey string

	// CacheKeySource is the provenance: keyring, file, or none.
	CacheKeySource cachekey.Provenance

	// SearchPath is appended to the inherited PATH, skipping entries
	// already present.
	SearchPath []string

	// Windows selects case-insensitive variable names and the ";" list
	// separator.
	Windows bool
}

// NewEnvironment builds the contract for a data directory, provisioned
// key material, and platform profile.
func NewEnvironment(dataDir string, material *cachekey.Material, profile platform.Profile) Environment {
	environment := Environment{
		DataDir:        dataDir,
		CacheKeySource: cachekey.ProvenanceNone,
		SearchPath:     profile.SearchPath,
		Windows:        profile.IsWindows(),
	}
	if material.Available() {
		environment.CacheKey = material.Base64()
		environment.CacheKeySource = material.Provenance
	}
	return environment
}

// Apply returns base (in os.Environ form) with the contract applied.
// base is not modified.
func (e Environment) Apply(base []string) []string {
	result := make([]string, 0, len(base)+4)
	result = append(result, base...)

	result = e.set(result, EnvDataDir, e.DataDir)
	if e.CacheKey != "" {
		result = e.set(result, EnvCacheKey, e.CacheKey)
	}
	result = e.set(result, EnvCacheKeySource, string(e.CacheKeySource))

	if len(e.SearchPath) > 0 {
		index, current := e.find(result, "PATH")
		name := "PATH"
		if index >= 0 {
			name = result[index][:strings.IndexByte(result[index], '=')]
		}
		result = e.set(result, name, appendSearchPath(current, e.SearchPath, e.Windows))
	}
	return result
}

// find returns the index and value of name in environment, or -1.
func (e Environment) find(environment []string, name string) (int, string) {
	for index, entry := range environment {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if key == name || (e.Windows && strings.EqualFold(key, name)) {
			return index, value
		}
	}
	return -1, ""
}

func (e Environment) set(environment []string, name, value string) []string {
	if index, _ := e.find(environment, name); index >= 0 {
		environment[index] = name + "=" + value
		return environment
	}
	return append(environment, name+"="+value)
}

// appendSearchPath appends each directory not already in current.
func appendSearchPath(current string, directories []string, windows bool) string {
	separator := ":"
	if windows {
		separator = ";"
	}
	existing := make(map[string]bool)
	var entries []string
	if current != "" {
		entries = strings.Split(current, separator)
	}
	normalize := func(directory string) string {
		directory = filepath.Clean(directory)
		if windows {
			directory = strings.ToLower(directory)
		}
		return directory
	}
	for _, entry := range entries {
		existing[normalize(entry)] = true
	}
	for _, directory := range directories {
		key := normalize(directory)
		if existing[key] {
			continue
		}
		existing[key] = true
		entries = append(entries, directory)
	}
	return strings.Join(entries, separator)
}
