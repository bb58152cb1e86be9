// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package secret

// allocate returns heap memory. macOS and Windows builds of the shell
// rely on zero-on-close only.
func allocate(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func release([]byte) error {
	return nil
}
