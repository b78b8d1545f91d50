// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for podstr packages.
//
// [NewIdentity] generates a throwaway signing identity, failing the
// test instead of returning an error, since key generation failure is
// not a recoverable test condition.
//
// [SignedEvent] builds and signs a minimal event so codec and storage
// tests do not repeat signing boilerplate.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need unique
// resource names or event content distinguishable across runs.
package testutil
