// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The sidecar supervisor records start times and waits out a shutdown
// grace period through a [Clock] so tests can control both. Production
// code uses [Real]; tests use [Fake], which stands still until
// [FakeClock.Advance] is called.
//
// A goroutine that calls After on a FakeClock registers a pending
// waiter. Tests call [FakeClock.WaitForTimers] before Advance so the
// waiter is guaranteed to exist when time moves.
package clock
