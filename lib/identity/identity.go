// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"fmt"
	"regexp"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// publicKeyPattern matches a 32-byte lowercase hex public key.
var publicKeyPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Identity is a Nostr identity: a schnorr key pair on secp256k1. The
// secret key is transient session state — it is never serialized or
// persisted by this module.
type Identity struct {
	// PublicKey is the 64-character lowercase hex public key.
	PublicKey string

	secretKey string
}

// New creates an Identity from a hex-encoded secret key. The public
// key is derived from it.
func New(secretKey string) (*Identity, error) {
	publicKey, err := nostr.GetPublicKey(secretKey)
	if err != nil {
		return nil, fmt.Errorf("identity: deriving public key: %w", err)
	}
	return &Identity{PublicKey: publicKey, secretKey: secretKey}, nil
}

// FromNsec creates an Identity from a NIP-19 bech32-encoded secret key.
func FromNsec(nsec string) (*Identity, error) {
	prefix, value, err := nip19.Decode(nsec)
	if err != nil {
		return nil, fmt.Errorf("identity: decoding nsec: %w", err)
	}
	if prefix != "nsec" {
		return nil, fmt.Errorf("identity: expected nsec, got %q", prefix)
	}
	return New(value.(string))
}

// ReadOnly creates an Identity that can authenticate comparisons but
// not sign. Used when the session was established by an external auth
// collaborator and only the public key is known.
func ReadOnly(publicKey string) (*Identity, error) {
	if !ValidPublicKey(publicKey) {
		return nil, fmt.Errorf("identity: invalid public key %q", publicKey)
	}
	return &Identity{PublicKey: publicKey}, nil
}

// Generate creates a fresh Identity with a random key pair.
func Generate() (*Identity, error) {
	return New(nostr.GeneratePrivateKey())
}

// ValidPublicKey reports whether s is a well-formed hex public key.
func ValidPublicKey(s string) bool {
	return publicKeyPattern.MatchString(s)
}

// Npub returns the NIP-19 bech32 encoding of the public key. This is
// the identity's portable encoded form; pod space names are derived
// from it.
func (i *Identity) Npub() (string, error) {
	npub, err := nip19.EncodePublicKey(i.PublicKey)
	if err != nil {
		return "", fmt.Errorf("identity: encoding npub: %w", err)
	}
	return npub, nil
}

// CanSign reports whether the identity holds a secret key.
func (i *Identity) CanSign() bool {
	return i.secretKey != ""
}

// Sign computes the event ID and schnorr signature in place, setting
// PubKey, ID, and Sig. Signing failure is fatal to the caller's
// operation — there is no partially-signed event.
func (i *Identity) Sign(event *nostr.Event) error {
	if i.secretKey == "" {
		return fmt.Errorf("identity: no secret key, cannot sign")
	}
	event.PubKey = i.PublicKey
	if err := event.Sign(i.secretKey); err != nil {
		return fmt.Errorf("identity: signing event: %w", err)
	}
	return nil
}
