// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/tokenstudio/lib/cachekey"
	"github.com/bureau-foundation/tokenstudio/lib/platform"
)

// Environment selects build-type behavior.
type Environment string

const (
	// Development prefers a stable on-disk cache key so local rebuilds
	// keep their authentication state.
	Development Environment = "development"
	// Production prefers the OS secret store.
	Production Environment = "production"
)

// DefaultIdentity is the application identity when none is configured.
const DefaultIdentity = "com.entratokenstudio.desktop"

// Environment variables read by the configuration layer.
const (
	// EnvConfig names the configuration file when --config is absent.
	EnvConfig = "ENTRA_TOKEN_STUDIO_CONFIG"
	// EnvDevUseKeyring opts a development build into the keyring.
	EnvDevUseKeyring = "ENTRA_TOKEN_STUDIO_DEV_USE_KEYRING"
	// EnvAllowFileCacheKey lets a production build fall back to the
	// key file.
	EnvAllowFileCacheKey = "ENTRA_TOKEN_STUDIO_ALLOW_FILE_CACHE_KEY"
)

// Config is the shell configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// Identity scopes the keyring account, the key file name, and the
	// default data directory.
	Identity string `yaml:"identity"`

	Paths    PathsConfig    `yaml:"paths"`
	Sidecar  SidecarConfig  `yaml:"sidecar"`
	CacheKey CacheKeyConfig `yaml:"cache_key"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// DataDir holds the key file and is exported to the worker. Empty
	// means the platform's application data directory for Identity.
	DataDir string `yaml:"data_dir"`
}

// SidecarConfig configures the worker process.
type SidecarConfig struct {
	// Script is an explicit entry script path. Empty means search the
	// resource root and the executable's ancestors.
	Script string `yaml:"script"`

	// Runtime is an explicit runtime executable. Empty means discover
	// it through PATH, standard locations, and version managers.
	Runtime string `yaml:"runtime"`

	// HideConsole suppresses the console window on Windows.
	HideConsole bool `yaml:"hide_console"`

	// ShutdownGrace is how long Close waits for the worker to exit
	// after its stdin closes. Parsed with time.ParseDuration.
	ShutdownGrace string `yaml:"shutdown_grace"`
}

// CacheKeyConfig configures the cache key provisioner.
type CacheKeyConfig struct {
	// KeyringService is the OS secret store service name.
	KeyringService string `yaml:"keyring_service"`

	// PreferKeyring forces the keyring on or off. Nil means the
	// environment default: on in production, off in development unless
	// ENTRA_TOKEN_STUDIO_DEV_USE_KEYRING is set.
	PreferKeyring *bool `yaml:"prefer_keyring"`

	// AllowFileFallback lets production fall back to the key file.
	// Development always allows it.
	AllowFileFallback bool `yaml:"allow_file_fallback"`
}

// Overrides holds the fields an environment section may replace. Empty
// strings and nil pointers leave the base value alone.
type Overrides struct {
	Identity string             `yaml:"identity,omitempty"`
	Paths    *PathsConfig       `yaml:"paths,omitempty"`
	Sidecar  *SidecarOverrides  `yaml:"sidecar,omitempty"`
	CacheKey *CacheKeyOverrides `yaml:"cache_key,omitempty"`
}

// SidecarOverrides is the overridable subset of SidecarConfig.
type SidecarOverrides struct {
	Script        string `yaml:"script,omitempty"`
	Runtime       string `yaml:"runtime,omitempty"`
	HideConsole   *bool  `yaml:"hide_console,omitempty"`
	ShutdownGrace string `yaml:"shutdown_grace,omitempty"`
}

// CacheKeyOverrides is the overridable subset of CacheKeyConfig.
type CacheKeyOverrides struct {
	KeyringService    string `yaml:"keyring_service,omitempty"`
	PreferKeyring     *bool  `yaml:"prefer_keyring,omitempty"`
	AllowFileFallback *bool  `yaml:"allow_file_fallback,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Environment: Production,
		Identity:    DefaultIdentity,
		Sidecar: SidecarConfig{
			HideConsole:   true,
			ShutdownGrace: "2s",
		},
		CacheKey: CacheKeyConfig{
			KeyringService: cachekey.DefaultService,
		},
	}
}

// Load loads the file named by path, or by ENTRA_TOKEN_STUDIO_CONFIG
// when path is empty. With neither, it returns Default with variables
// expanded: a desktop application has no required configuration file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables(platform.EnvironmentLookup)
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file. Files ending in
// .json or .jsonc may carry comments and trailing commas; everything
// else is YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables(platform.EnvironmentLookup)

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a YAML subset once comments and trailing commas are gone.
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Identity != "" {
		c.Identity = overrides.Identity
	}

	if overrides.Paths != nil && overrides.Paths.DataDir != "" {
		c.Paths.DataDir = overrides.Paths.DataDir
	}

	if sidecar := overrides.Sidecar; sidecar != nil {
		if sidecar.Script != "" {
			c.Sidecar.Script = sidecar.Script
		}
		if sidecar.Runtime != "" {
			c.Sidecar.Runtime = sidecar.Runtime
		}
		if sidecar.HideConsole != nil {
			c.Sidecar.HideConsole = *sidecar.HideConsole
		}
		if sidecar.ShutdownGrace != "" {
			c.Sidecar.ShutdownGrace = sidecar.ShutdownGrace
		}
	}

	if cacheKey := overrides.CacheKey; cacheKey != nil {
		if cacheKey.KeyringService != "" {
			c.CacheKey.KeyringService = cacheKey.KeyringService
		}
		if cacheKey.PreferKeyring != nil {
			prefer := *cacheKey.PreferKeyring
			c.CacheKey.PreferKeyring = &prefer
		}
		if cacheKey.AllowFileFallback != nil {
			c.CacheKey.AllowFileFallback = *cacheKey.AllowFileFallback
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables(lookup platform.Lookup) {
	for _, field := range []*string{&c.Paths.DataDir, &c.Sidecar.Script, &c.Sidecar.Runtime} {
		*field, _ = platform.Expand(*field, lookup)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q (want development or production)", c.Environment))
	}

	if c.Identity == "" {
		errs = append(errs, errors.New("identity is required"))
	} else if strings.ContainsAny(c.Identity, `/\`) {
		errs = append(errs, fmt.Errorf("identity %q must not contain path separators", c.Identity))
	}

	if c.CacheKey.KeyringService == "" {
		errs = append(errs, errors.New("cache_key.keyring_service is required"))
	}

	if c.Sidecar.ShutdownGrace != "" {
		grace, err := time.ParseDuration(c.Sidecar.ShutdownGrace)
		if err != nil {
			errs = append(errs, fmt.Errorf("sidecar.shutdown_grace: %w", err))
		} else if grace <= 0 {
			errs = append(errs, fmt.Errorf("sidecar.shutdown_grace must be positive, got %s", grace))
		}
	}

	if c.Paths.DataDir != "" && !filepath.IsAbs(c.Paths.DataDir) {
		errs = append(errs, fmt.Errorf("paths.data_dir must be absolute, got %q", c.Paths.DataDir))
	}

	return errors.Join(errs...)
}

// ShutdownGraceDuration returns the parsed shutdown grace, or zero when
// unset so the supervisor applies its default. Call Validate first.
func (c *Config) ShutdownGraceDuration() time.Duration {
	grace, err := time.ParseDuration(c.Sidecar.ShutdownGrace)
	if err != nil {
		return 0
	}
	return grace
}

// DataDir returns the configured data directory, or the platform's
// application data directory for Identity.
func (c *Config) DataDir(profile platform.Profile, lookup platform.Lookup) (string, error) {
	if c.Paths.DataDir != "" {
		return c.Paths.DataDir, nil
	}
	return profile.DataDir(c.Identity, lookup)
}

// KeyPolicy returns the cache key policy for this environment. The
// ENTRA_TOKEN_STUDIO_* toggles accept "1" or "true" in any case.
func (c *Config) KeyPolicy(lookup platform.Lookup) cachekey.Policy {
	if lookup == nil {
		lookup = platform.EnvironmentLookup
	}

	if c.Environment == Development {
		useKeyring := enabled(lookup(EnvDevUseKeyring))
		if c.CacheKey.PreferKeyring != nil {
			useKeyring = useKeyring || *c.CacheKey.PreferKeyring
		}
		return cachekey.DevelopmentPolicy(useKeyring)
	}

	policy := cachekey.ProductionPolicy(c.CacheKey.AllowFileFallback || enabled(lookup(EnvAllowFileCacheKey)))
	if c.CacheKey.PreferKeyring != nil && !*c.CacheKey.PreferKeyring {
		// A production build that opts out of the keyring must still
		// have somewhere to keep the key.
		policy = cachekey.Policy{UseKeyring: false, AllowFile: true}
	}
	return policy
}

func enabled(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}
