// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keystore adapts the operating system's secret store (macOS
// Keychain, Windows Credential Manager, Secret Service on Linux) to a
// small interface keyed by service and account.
//
// [System] is the production implementation backed by
// github.com/zalando/go-keyring. [Memory] is an in-process store for
// tests and for hosts without a secret service; it can inject read and
// write failures to exercise fallback paths.
//
// Every implementation reports a missing entry as [ErrNotFound]. Any
// other error means the store could not answer, and callers must not
// assume the entry is absent.
package keystore
