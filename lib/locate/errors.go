// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package locate

import (
	"errors"
	"strings"
)

const (
	// RuntimeNotFoundMarker starts every RuntimeNotFoundError message.
	RuntimeNotFoundMarker = "Node.js not found"

	// ScriptNotFoundMarker starts every ScriptNotFoundError message.
	ScriptNotFoundMarker = "could not find sidecar entry script"
)

// ErrExecutablePath means the running executable's own path could not
// be determined, so no packaged location can be derived.
var ErrExecutablePath = errors.New("cannot determine executable path")

// RuntimeNotFoundError reports that no usable runtime was found.
type RuntimeNotFoundError struct {
	// Hint is a platform-specific installation suggestion.
	Hint string

	// Checked lists the candidate paths that were examined.
	Checked []string
}

func (e *RuntimeNotFoundError) Error() string {
	message := RuntimeNotFoundMarker + ". Please install Node.js (https://nodejs.org) and make sure it is on your PATH."
	if e.Hint != "" {
		message += " " + e.Hint
	}
	return message
}

// ScriptNotFoundError reports that the entry script is missing from
// every candidate location.
type ScriptNotFoundError struct {
	Relative string
	Checked  []string
}

func (e *ScriptNotFoundError) Error() string {
	return ScriptNotFoundMarker + " " + e.Relative +
		". Checked paths: " + strings.Join(e.Checked, ", ") +
		". Build the sidecar (npm run build in sidecar/) and try again."
}
