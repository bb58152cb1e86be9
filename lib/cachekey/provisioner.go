// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cachekey

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/tokenstudio/lib/keystore"
	"github.com/bureau-foundation/tokenstudio/lib/secret"
)

// DefaultService is the keyring service name for cache keys.
const DefaultService = "Entra Token Studio"

var (
	// ErrKeyStoreUnavailable means the OS secret store could not be read
	// or written. The stored key, if any, was left untouched.
	ErrKeyStoreUnavailable = errors.New("cache key store unavailable")

	// ErrKeyFileInvalid means the key file exists but does not hold a
	// valid key.
	ErrKeyFileInvalid = errors.New("cache key file invalid")
)

// Policy selects which stores the provisioner consults.
type Policy struct {
	// UseKeyring tries the OS secret store first.
	UseKeyring bool

	// AllowFile permits the key file, either as the primary store or as
	// the fallback when the keyring fails.
	AllowFile bool
}

// DevelopmentPolicy uses the key file unless useKeyring is set.
func DevelopmentPolicy(useKeyring bool) Policy {
	return Policy{UseKeyring: useKeyring, AllowFile: true}
}

// ProductionPolicy always uses the keyring and falls back to the file
// only when allowFile is set.
func ProductionPolicy(allowFile bool) Policy {
	return Policy{UseKeyring: true, AllowFile: allowFile}
}

// Provisioner resolves the cache key for one identity.
type Provisioner struct {
	// Identity is the application identifier, used in the keyring
	// account and the key file name.
	Identity string

	// DataDir holds the key file. Created with mode 0700 when a file
	// must be written.
	DataDir string

	// Service is the keyring service. Defaults to DefaultService.
	Service string

	// Store is the OS secret store. Defaults to keystore.System.
	Store keystore.Store

	Policy Policy

	// Random is the key entropy source. Defaults to crypto/rand.
	Random io.Reader

	// Logger defaults to a text handler on stderr.
	Logger *slog.Logger
}

func (p *Provisioner) service() string {
	if p.Service == "" {
		return DefaultService
	}
	return p.Service
}

func (p *Provisioner) store() keystore.Store {
	if p.Store == nil {
		return keystore.System{}
	}
	return p.Store
}

func (p *Provisioner) random() io.Reader {
	if p.Random == nil {
		return rand.Reader
	}
	return p.Random
}

func (p *Provisioner) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return p.Logger
}

// Account returns the keyring account name.
func (p *Provisioner) Account() string {
	return p.Identity + ":msal-cache-key"
}

// FilePath returns the key file location.
func (p *Provisioner) FilePath() string {
	return filepath.Join(p.DataDir, "msal-cache-key."+p.Identity+".b64")
}

// Provision returns the cache key according to the policy. It never
// fails: every store failure is logged and the next store is tried,
// ending in material with ProvenanceNone.
func (p *Provisioner) Provision() *Material {
	logger := p.logger()

	if p.Policy.UseKeyring {
		material, err := p.fromKeyring()
		if err == nil {
			logger.Info("cache key ready",
				"provenance", material.Provenance,
				"fingerprint", material.Fingerprint(),
			)
			return material
		}
		logger.Warn("keyring cache key unavailable", "service", p.service(), "account", p.Account(), "error", err)
		if !p.Policy.AllowFile {
			logger.Warn("file cache key disabled, continuing without a persistent cache key")
			return None()
		}
	}

	if p.Policy.AllowFile {
		material, err := p.fromFile()
		if err == nil {
			logger.Info("cache key ready",
				"provenance", material.Provenance,
				"fingerprint", material.Fingerprint(),
				"path", p.FilePath(),
			)
			return material
		}
		logger.Warn("file cache key unavailable", "path", p.FilePath(), "error", err)
	}

	logger.Warn("continuing without a persistent cache key")
	return None()
}

// fromKeyring reuses a valid keyring entry or replaces an absent or
// malformed one. Read errors other than ErrNotFound leave the entry
// alone.
func (p *Provisioner) fromKeyring() (*Material, error) {
	store := p.store()
	service, account := p.service(), p.Account()

	value, err := store.Get(service, account)
	switch {
	case err == nil:
		raw, decodeErr := decode(value)
		if decodeErr == nil {
			return newMaterial(raw, ProvenanceKeyring)
		}
		p.logger().Warn("keyring cache key invalid, regenerating", "account", account, "error", decodeErr)
		if err := store.Delete(service, account); err != nil && !errors.Is(err, keystore.ErrNotFound) {
			p.logger().Warn("deleting invalid keyring cache key", "account", account, "error", err)
		}
	case errors.Is(err, keystore.ErrNotFound):
	default:
		return nil, fmt.Errorf("%w: %w", ErrKeyStoreUnavailable, err)
	}

	raw, err := generate(p.random())
	if err != nil {
		return nil, err
	}
	if err := store.Set(service, account, base64.StdEncoding.EncodeToString(raw)); err != nil {
		secret.Zero(raw)
		return nil, fmt.Errorf("%w: %w", ErrKeyStoreUnavailable, err)
	}
	return newMaterial(raw, ProvenanceKeyring)
}

// fromFile reuses a valid key file or writes a fresh one.
func (p *Provisioner) fromFile() (*Material, error) {
	path := p.FilePath()

	raw, err := readKeyFile(path)
	switch {
	case err == nil:
		return newMaterial(raw, ProvenanceFile)
	case errors.Is(err, fs.ErrNotExist):
	default:
		p.logger().Warn("cache key file unusable, regenerating", "path", path, "error", err)
	}

	raw, err = generate(p.random())
	if err != nil {
		return nil, err
	}
	if err := writeKeyFile(path, raw); err != nil {
		secret.Zero(raw)
		return nil, err
	}
	return newMaterial(raw, ProvenanceFile)
}

// readKeyFile returns the raw key stored at path. A missing file wraps
// fs.ErrNotExist; malformed content wraps ErrKeyFileInvalid.
func readKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(data)

	raw, err := decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyFileInvalid, path, err)
	}
	return raw, nil
}

// writeKeyFile atomically writes the base64 form of raw to path with
// mode 0600, creating the parent directory with mode 0700.
func writeKeyFile(path string, raw []byte) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("creating cache key directory: %w", err)
	}

	data := []byte(base64.StdEncoding.EncodeToString(raw))
	defer secret.Zero(data)

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary cache key file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary cache key file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary cache key file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary cache key file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming cache key file into place: %w", err)
	}

	// The rename is durable only once the directory entry is flushed.
	parentDirectory, err := os.Open(directory)
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}
