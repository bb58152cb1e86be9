// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// ReadFromPath reads a secret from a file, or from stdin when path is
// "-". Blank lines and lines starting with '#' are skipped, so an
// identity file written by age-keygen reads as its key line. The first
// remaining line, trimmed, is the secret; finding none is an error. The
// caller must close the returned buffer.
func ReadFromPath(path string, stdin io.Reader) (*Buffer, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	// Zero everything outside the extracted line as well.
	defer Zero(data)

	for line := range bytes.Lines(data) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		return NewFromBytes(trimmed)
	}

	if path == "-" {
		return nil, fmt.Errorf("stdin holds no secret")
	}
	return nil, fmt.Errorf("%s holds no secret", path)
}
