// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"os"
	"regexp"
)

// varPattern matches ${VAR} and ${VAR:-default}. The default may not
// contain "${", so nested references resolve innermost first across
// successive passes.
var varPattern = regexp.MustCompile(`\$\{([^}:$]+)(?::-([^}$]*))?\}`)

// maxExpandPasses bounds nested expansion depth.
const maxExpandPasses = 4

// Lookup resolves a variable name. Empty values count as unset.
type Lookup func(name string) string

// EnvironmentLookup resolves variables from the process environment.
func EnvironmentLookup(name string) string {
	return os.Getenv(name)
}

// Expand expands ${VAR} and ${VAR:-default} patterns in s using lookup.
// The boolean result is false when some variable had neither a value
// nor a default; callers probing filesystem locations should skip such
// paths rather than probe a truncated one.
func Expand(s string, lookup Lookup) (string, bool) {
	if lookup == nil {
		lookup = EnvironmentLookup
	}
	complete := true
	for range maxExpandPasses {
		expanded := varPattern.ReplaceAllStringFunc(s, func(match string) string {
			parts := varPattern.FindStringSubmatch(match)
			if value := lookup(parts[1]); value != "" {
				return value
			}
			if len(parts) >= 3 && parts[2] != "" {
				return parts[2]
			}
			// ${VAR:-} is an explicit empty default.
			if len(match) > len(parts[1])+3 {
				return ""
			}
			complete = false
			return ""
		})
		if expanded == s {
			break
		}
		s = expanded
	}
	return s, complete
}

// WithHome returns a Lookup that reports home for ${HOME} (and
// ${USERPROFILE} on Windows layouts) and defers everything else to base.
func WithHome(home string, base Lookup) Lookup {
	if base == nil {
		base = EnvironmentLookup
	}
	return func(name string) string {
		if home != "" && (name == "HOME" || name == "USERPROFILE") {
			return home
		}
		return base(name)
	}
}
