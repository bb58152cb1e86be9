// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed provides age encryption for cache-key escrow. It wraps
// filippo.io/age for the operations the shell needs: generate an x25519
// keypair for a recovery identity, seal plaintext to one or more
// recipients, and open a sealed blob with an identity.
//
// Sealed output is ASCII-armored ("-----BEGIN AGE ENCRYPTED FILE-----")
// so an escrowed key can be pasted into a ticket or password manager.
// [Open] accepts armored or binary input.
//
// Private keys and opened plaintext are returned as [secret.Buffer]
// values and are zeroed on Close.
//
// Depends on lib/secret.
package sealed
