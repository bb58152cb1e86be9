// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tokenstudio/lib/cachekey"
	"github.com/bureau-foundation/tokenstudio/lib/config"
	"github.com/bureau-foundation/tokenstudio/lib/locate"
	"github.com/bureau-foundation/tokenstudio/lib/platform"
	"github.com/bureau-foundation/tokenstudio/lib/sidecar"
)

// commonOptions are the flags every subcommand accepts.
type commonOptions struct {
	configPath string
	debug      bool
}

func (o *commonOptions) register(flags *pflag.FlagSet) {
	flags.StringVarP(&o.configPath, "config", "c", "", "configuration file (default: $"+config.EnvConfig+")")
	flags.BoolVar(&o.debug, "debug", false, "log at debug level")
}

// shell is the resolved runtime context shared by subcommands.
type shell struct {
	config  *config.Config
	logger  *slog.Logger
	profile platform.Profile
	dataDir string
}

func newShell(options commonOptions, std streams) (*shell, error) {
	cfg, err := loadConfig(options.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	profile := platform.Current()
	dataDir, err := cfg.DataDir(profile, platform.EnvironmentLookup)
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}

	logger := newLogger(std.stderr, options.debug)
	logger.Debug("configuration loaded",
		"environment", cfg.Environment,
		"identity", cfg.Identity,
		"data_dir", dataDir,
	)

	return &shell{config: cfg, logger: logger, profile: profile, dataDir: dataDir}, nil
}

// loadConfig loads the configuration. Development builds also read
// .env from the working directory, without overriding variables already
// set, and then reload so the file's ${VAR} references see them.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Environment != config.Development {
		return cfg, nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return config.Load(path)
}

func (s *shell) provisioner() *cachekey.Provisioner {
	return &cachekey.Provisioner{
		Identity: s.config.Identity,
		DataDir:  s.dataDir,
		Service:  s.config.CacheKey.KeyringService,
		Policy:   s.config.KeyPolicy(platform.EnvironmentLookup),
		Logger:   s.logger,
	}
}

// newManager builds the supervisor. The environment contract is fixed
// here, before any spawn.
func (s *shell) newManager(material *cachekey.Material) (*sidecar.Manager, error) {
	var runtime sidecar.RuntimeFinder = &locate.RuntimeLocator{Profile: s.profile, Logger: s.logger}
	if s.config.Sidecar.Runtime != "" {
		runtime = locate.FixedRuntime(s.config.Sidecar.Runtime)
	}

	var script sidecar.ScriptFinder = &locate.ScriptLocator{Profile: s.profile}
	if s.config.Sidecar.Script != "" {
		script = locate.FixedScript(s.config.Sidecar.Script)
	}

	return sidecar.New(sidecar.Config{
		Runtime:       runtime,
		Script:        script,
		Environment:   sidecar.NewEnvironment(s.dataDir, material, s.profile),
		HideConsole:   s.config.Sidecar.HideConsole,
		ShutdownGrace: s.config.ShutdownGraceDuration(),
		Logger:        s.logger,
	})
}

// closeOnDone closes manager when ctx ends, which ends a call the
// worker never answers. The returned func cancels the watch.
func closeOnDone(ctx context.Context, manager *sidecar.Manager) (stop func() bool) {
	return context.AfterFunc(ctx, func() { manager.Close() })
}
