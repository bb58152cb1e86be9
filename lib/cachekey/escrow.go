// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cachekey

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"

	"github.com/bureau-foundation/tokenstudio/lib/keystore"
	"github.com/bureau-foundation/tokenstudio/lib/sealed"
	"github.com/bureau-foundation/tokenstudio/lib/secret"
)

// ErrKeyExists is returned by Restore when the target already holds a
// different valid key and force was not requested.
var ErrKeyExists = errors.New("a different cache key is already stored")

// Escrow seals the key's base64 form to the given age recipients.
func Escrow(material *Material, recipients []string) ([]byte, error) {
	if !material.Available() {
		return nil, fmt.Errorf("no cache key to escrow")
	}
	encoded := []byte(material.Base64())
	defer secret.Zero(encoded)
	return sealed.Seal(encoded, recipients)
}

// Restore opens an escrowed key with identity and stores it at target
// (ProvenanceKeyring or ProvenanceFile). A target that already holds the
// same key is left as is. A target holding a different valid key is
// replaced only when force is set, since replacing it orphans the
// cache encrypted under it.
func (p *Provisioner) Restore(escrowed []byte, identity *secret.Buffer, target Provenance, force bool) (*Material, error) {
	opened, err := sealed.Open(escrowed, identity)
	if err != nil {
		return nil, fmt.Errorf("opening escrowed cache key: %w", err)
	}
	raw, err := decode(opened.String())
	opened.Close()
	if err != nil {
		return nil, fmt.Errorf("escrowed cache key: %w", err)
	}

	existing, err := p.read(target)
	if err != nil {
		secret.Zero(raw)
		return nil, err
	}
	if existing != nil {
		same := bytes.Equal(existing, raw)
		secret.Zero(existing)
		if same {
			return newMaterial(raw, target)
		}
		if !force {
			secret.Zero(raw)
			return nil, ErrKeyExists
		}
	}

	if err := p.write(target, raw); err != nil {
		secret.Zero(raw)
		return nil, err
	}
	p.logger().Info("cache key restored", "provenance", target, "fingerprint", fingerprint(raw))
	return newMaterial(raw, target)
}

// read returns the valid key at target, nil when absent or malformed.
func (p *Provisioner) read(target Provenance) ([]byte, error) {
	switch target {
	case ProvenanceKeyring:
		value, err := p.store().Get(p.service(), p.Account())
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyStoreUnavailable, err)
		}
		raw, _ := decode(value)
		return raw, nil
	case ProvenanceFile:
		raw, err := readKeyFile(p.FilePath())
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrKeyFileInvalid) {
			return nil, nil
		}
		return raw, err
	default:
		return nil, fmt.Errorf("cannot restore to %q", target)
	}
}

func (p *Provisioner) write(target Provenance, raw []byte) error {
	if target == ProvenanceFile {
		return writeKeyFile(p.FilePath(), raw)
	}
	if err := p.store().Set(p.service(), p.Account(), base64.StdEncoding.EncodeToString(raw)); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyStoreUnavailable, err)
	}
	return nil
}
