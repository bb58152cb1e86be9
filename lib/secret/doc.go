// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a buffer for sensitive data such as the
// sidecar's cache encryption key and age identities used for key
// escrow.
//
// On Linux, [Buffer] memory is allocated outside the Go heap via
// mmap(MAP_ANONYMOUS), locked into RAM via mlock, and excluded from
// core dumps via madvise(MADV_DONTDUMP). On other platforms the memory
// is an ordinary heap slice. On every platform the contents are zeroed
// on Close and any access after Close panics.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//   - [ReadFromPath] -- reads the first non-comment line of a file or stdin
//
// Depends on golang.org/x/sys/unix on Linux. No tokenstudio-internal
// dependencies.
package secret
