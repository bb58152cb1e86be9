// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cachekey

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/tokenstudio/lib/secret"
)

// KeySize is the raw cache key length in bytes.
const KeySize = 32

// Provenance records where the cache key came from.
type Provenance string

const (
	ProvenanceKeyring Provenance = "keyring"
	ProvenanceFile    Provenance = "file"
	ProvenanceNone    Provenance = "none"
)

// Material is the provisioned cache key. It is created once at startup
// and immutable afterwards. A Material with ProvenanceNone carries no
// key.
type Material struct {
	Provenance Provenance

	raw *secret.Buffer
}

// None returns material that carries no key.
func None() *Material {
	return &Material{Provenance: ProvenanceNone}
}

// newMaterial moves raw into protected memory. raw is zeroed.
func newMaterial(raw []byte, provenance Provenance) (*Material, error) {
	buffer, err := secret.NewFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("protecting cache key: %w", err)
	}
	return &Material{Provenance: provenance, raw: buffer}, nil
}

// Available reports whether the material carries a key.
func (m *Material) Available() bool {
	return m != nil && m.raw != nil
}

// Base64 returns the key in standard base64, or "" when no key is
// available. The result is a heap string destined for the sidecar's
// environment.
func (m *Material) Base64() string {
	if !m.Available() {
		return ""
	}
	return base64.StdEncoding.EncodeToString(m.raw.Bytes())
}

// Fingerprint returns a short BLAKE3 digest of the key that identifies
// it in logs without revealing it. Empty when no key is available.
func (m *Material) Fingerprint() string {
	if !m.Available() {
		return ""
	}
	return fingerprint(m.raw.Bytes())
}

// Close zeros the key.
func (m *Material) Close() error {
	if !m.Available() {
		return nil
	}
	return m.raw.Close()
}

func fingerprint(raw []byte) string {
	digest := blake3.Sum256(raw)
	return "blake3:" + hex.EncodeToString(digest[:8])
}

// decode validates a stored value and returns the raw key. Surrounding
// whitespace is ignored.
func decode(value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("stored key is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("stored key is not valid base64: %w", err)
	}
	if len(raw) != KeySize {
		secret.Zero(raw)
		return nil, fmt.Errorf("stored key decodes to %d bytes, want %d", len(raw), KeySize)
	}
	return raw, nil
}

// generate reads KeySize bytes from random.
func generate(random io.Reader) ([]byte, error) {
	raw := make([]byte, KeySize)
	if _, err := io.ReadFull(random, raw); err != nil {
		secret.Zero(raw)
		return nil, fmt.Errorf("generating cache key: %w", err)
	}
	return raw, nil
}
