// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cachekey

import (
	"errors"
	"io/fs"

	"github.com/bureau-foundation/tokenstudio/lib/keystore"
	"github.com/bureau-foundation/tokenstudio/lib/secret"
)

// State describes what a store currently holds.
type State string

const (
	StateValid       State = "valid"
	StateMissing     State = "missing"
	StateInvalid     State = "invalid"
	StateUnavailable State = "unavailable"
	StateDisabled    State = "disabled"
)

// LocationStatus is the read-only view of one store.
type LocationStatus struct {
	// Location is the keyring "service/account" or the file path.
	Location    string `json:"location"`
	State       State  `json:"state"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Status reports both stores.
type Status struct {
	Keyring LocationStatus `json:"keyring"`
	File    LocationStatus `json:"file"`
}

// Status inspects both stores without creating, deleting, or
// overwriting anything.
func (p *Provisioner) Status() Status {
	return Status{
		Keyring: p.keyringStatus(),
		File:    p.fileStatus(),
	}
}

func (p *Provisioner) keyringStatus() LocationStatus {
	status := LocationStatus{Location: p.service() + "/" + p.Account()}
	if !p.Policy.UseKeyring {
		status.State = StateDisabled
		return status
	}

	value, err := p.store().Get(p.service(), p.Account())
	switch {
	case errors.Is(err, keystore.ErrNotFound):
		status.State = StateMissing
	case err != nil:
		status.State = StateUnavailable
		status.Error = err.Error()
	default:
		status.classify(decode(value))
	}
	return status
}

func (p *Provisioner) fileStatus() LocationStatus {
	status := LocationStatus{Location: p.FilePath()}
	if !p.Policy.AllowFile {
		status.State = StateDisabled
		return status
	}

	raw, err := readKeyFile(p.FilePath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		status.State = StateMissing
	case err != nil && !errors.Is(err, ErrKeyFileInvalid):
		status.State = StateUnavailable
		status.Error = err.Error()
	default:
		status.classify(raw, err)
	}
	return status
}

func (s *LocationStatus) classify(raw []byte, err error) {
	if err != nil {
		s.State = StateInvalid
		s.Error = err.Error()
		return
	}
	s.State = StateValid
	s.Fingerprint = fingerprint(raw)
	secret.Zero(raw)
}
