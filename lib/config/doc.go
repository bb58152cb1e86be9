// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads studio-shell configuration.
//
// Configuration comes from one file named by the --config flag or the
// ENTRA_TOKEN_STUDIO_CONFIG environment variable. YAML is the default
// format; files ending in .json or .jsonc are read as JSON with comments.
// When no file is named, [Default] applies.
//
// The file may contain development and production sections that
// override base values when [Config].Environment matches. Path fields
// accept ${VAR} and ${VAR:-default} references.
//
// Cache key policy is derived here rather than in the provisioner:
// [Config.KeyPolicy] combines the environment, the cache_key section,
// and the ENTRA_TOKEN_STUDIO_DEV_USE_KEYRING and
// ENTRA_TOKEN_STUDIO_ALLOW_FILE_CACHE_KEY toggles.
package config
