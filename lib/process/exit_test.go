// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestReport(t *testing.T) {
	var buffer bytes.Buffer
	if code := report(&buffer, errors.New("sidecar not started")); code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
	if got := buffer.String(); got != "error: sidecar not started\n" {
		t.Errorf("output = %q", got)
	}

	buffer.Reset()
	if code := report(&buffer, fmt.Errorf("health: %w", &ExitError{Code: 2})); code != 2 {
		t.Errorf("code = %d, want 2", code)
	}
	if buffer.Len() != 0 {
		t.Errorf("ExitError should not print, got %q", buffer.String())
	}
}
