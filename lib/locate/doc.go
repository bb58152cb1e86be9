// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package locate finds the two things needed to launch the sidecar: the
// Node.js runtime executable and the worker's entry script.
//
// [RuntimeLocator] tries, in order: the runtime on PATH (verified by
// running it with --version under a timeout), the profile's standard
// install paths, and the version directories of each known version
// manager (nvm, fnm, volta, asdf). The first usable executable wins;
// no version preference is applied.
//
// [ScriptLocator] looks for the entry script beside the executable,
// first in the platform's packaged resource directory, then walks up
// the executable's ancestors for a development checkout.
//
// [FixedRuntime] and [FixedScript] bypass discovery for explicitly
// configured paths.
//
// Failures are returned as [*RuntimeNotFoundError] and
// [*ScriptNotFoundError], whose messages are shown to the user
// verbatim and begin with fixed markers that health reporting keys on.
package locate
