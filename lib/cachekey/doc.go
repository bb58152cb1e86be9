// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cachekey provisions the 256-bit key the sidecar uses to
// encrypt its persistent token cache.
//
// A key, once issued for an identity, must survive restarts: losing it
// orphans every token the sidecar has cached. [Provisioner.Provision]
// therefore reuses a stored key whenever one validates (standard base64
// decoding to exactly [KeySize] bytes) and only generates a new one when
// the stored value is absent or malformed. When the OS secret store
// answers with an error other than "not found", the provisioner does
// not write: the entry may exist and be temporarily unreadable.
//
// Two stores are tried according to [Policy]:
//
//   - the OS keyring, service "Entra Token Studio", account
//     "<identity>:msal-cache-key"
//   - a file "<dataDir>/msal-cache-key.<identity>.b64", mode 0600,
//     written atomically
//
// When neither yields a key the result has [ProvenanceNone] and the
// sidecar falls back to its own behavior. Provision never fails.
//
// [Escrow] and [Provisioner.Restore] seal a key to age recipients and
// write a recovered key back, for moving a token cache between machines
// or recovering from a wiped keyring.
package cachekey
