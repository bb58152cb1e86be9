// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keystore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ErrNotFound is returned by Get and Delete when no entry exists for
// the service and account.
var ErrNotFound = errors.New("keystore: entry not found")

// Store reads and writes string secrets addressed by service and
// account.
type Store interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
	Delete(service, account string) error
}

// System is the OS secret store.
type System struct{}

var _ Store = System{}

// Get returns the secret stored for service and account.
func (System) Get(service, account string) (string, error) {
	value, err := keyring.Get(service, account)
	if err != nil {
		return "", translate("get", service, account, err)
	}
	return value, nil
}

// Set stores value, replacing any existing entry.
func (System) Set(service, account, value string) error {
	if err := keyring.Set(service, account, value); err != nil {
		return translate("set", service, account, err)
	}
	return nil
}

// Delete removes the entry.
func (System) Delete(service, account string) error {
	if err := keyring.Delete(service, account); err != nil {
		return translate("delete", service, account, err)
	}
	return nil
}

func translate(op, service, account string, err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("keystore: %s %s/%s: %w", op, service, account, err)
}
