// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package idbridge

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/podstr-project/podstr/lib/identity"
)

// npubPrefix is the NIP-19 human-readable part plus separator that
// every encoded public key starts with.
const npubPrefix = "npub1"

// spaceNameLength bounds the space name to a stable, DNS-friendly
// slice of the npub data part.
const spaceNameLength = 24

// profileDocPath is the profile document's path inside a pod space.
// The WebID is this document's #me fragment.
const profileDocPath = "profile/card"

var spaceNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// SpaceName derives a pod space name from a hex public key: the first
// 24 characters of its npub encoding after the npub1 prefix. The
// derivation is deterministic but lossy; recovering the full key from
// a space name requires the profile document.
func SpaceName(pubkey string) (string, error) {
	if !identity.ValidPublicKey(pubkey) {
		return "", fmt.Errorf("idbridge: invalid public key %q", pubkey)
	}
	npub, err := nip19.EncodePublicKey(pubkey)
	if err != nil {
		return "", fmt.Errorf("idbridge: encoding npub: %w", err)
	}
	name := strings.TrimPrefix(npub, npubPrefix)
	if len(name) > spaceNameLength {
		name = name[:spaceNameLength]
	}
	if !spaceNamePattern.MatchString(name) {
		return "", fmt.Errorf("idbridge: derived space name %q is not a valid slug", name)
	}
	return name, nil
}

// PodRoot returns the root container URL of the key's pod space on
// the given server.
func PodRoot(serverBase, pubkey string) (string, error) {
	name, err := SpaceName(pubkey)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(serverBase, "/") + "/" + name + "/", nil
}

// WebID returns the key's storage identity URL on the given server:
// the space's profile document with a #me fragment.
func WebID(serverBase, pubkey string) (string, error) {
	root, err := PodRoot(serverBase, pubkey)
	if err != nil {
		return "", err
	}
	return root + profileDocPath + "#me", nil
}

// ProfileDocURL strips the WebID fragment, yielding the profile
// document resource the WebID lives in.
func ProfileDocURL(webID string) string {
	if i := strings.IndexByte(webID, '#'); i >= 0 {
		return webID[:i]
	}
	return webID
}

// ExtractPodRoot recovers the pod root container URL from a WebID
// following the fixed space layout. It reports false for URLs that do
// not match the layout.
func ExtractPodRoot(webID string) (string, bool) {
	doc := ProfileDocURL(webID)
	root, ok := strings.CutSuffix(doc, profileDocPath)
	if !ok || !strings.HasSuffix(root, "/") {
		return "", false
	}
	return root, true
}
