// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package idbridge maps between Nostr identities and pod storage
// identities.
//
// The forward direction (public key to WebID) is a pure function of
// the pod server base URL: the space name is derived from the key's
// npub encoding, and the WebID is the space's profile document plus a
// #me fragment. The reverse direction goes through the profile
// document itself, which embeds the public key, so that a WebID found
// in the wild can be resolved back to the key that owns it. A Service
// caches resolutions in both directions and can write the linkage
// into a profile document, preferring a partial update and falling
// back to a full replace on servers without PATCH support.
package idbridge
