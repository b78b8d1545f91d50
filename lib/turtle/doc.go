// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package turtle contains the pure text codecs of the bridge: Nostr
// events to and from Turtle documents, and access-control entry lists
// to and from WAC authorization documents.
//
// The decoders are deliberately narrow. They promise only to invert
// the documents their paired encoders emit (plus incidental
// whitespace); they are not grammar-level Turtle parsers. If
// third-party document interop is ever required, a real parser can
// replace them behind the same contract.
package turtle
