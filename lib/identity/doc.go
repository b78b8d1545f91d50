// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity models the Nostr side of the bridge: a schnorr key
// pair, its NIP-19 portable encoding, event signing, and NIP-44
// payload encryption.
//
// An Identity is constructed once at session start and threaded
// through the services by dependency injection. The secret key never
// leaves the process: nothing in this module serializes it, and the
// sync queue stores only already-encoded documents.
package identity
