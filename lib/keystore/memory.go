// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keystore

import "sync"

// Memory is an in-process Store. The zero value is ready to use.
//
// GetErr and SetErr, when non-nil, are returned by every Get or Set
// call in place of the normal behavior.
type Memory struct {
	mu      sync.Mutex
	entries map[string]string

	GetErr error
	SetErr error

	// Sets counts successful Set calls.
	Sets int
}

var _ Store = (*Memory)(nil)

func memoryKey(service, account string) string {
	return service + "\x00" + account
}

func (m *Memory) Get(service, account string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return "", m.GetErr
	}
	value, ok := m.entries[memoryKey(service, account)]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Memory) Set(service, account, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	if m.entries == nil {
		m.entries = make(map[string]string)
	}
	m.entries[memoryKey(service, account)] = value
	m.Sets++
	return nil
}

func (m *Memory) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(service, account)
	if _, ok := m.entries[key]; !ok {
		return ErrNotFound
	}
	delete(m.entries, key)
	return nil
}
