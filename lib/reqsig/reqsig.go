// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package reqsig builds the signed-request authentication header that
// lets a pod server authenticate HTTP requests with nothing but the
// caller's Nostr key pair.
//
// Each request carries a fresh kind-27235 event whose tags bind it to
// the exact URL, method, and (for body-carrying methods) a sha256
// digest of the payload. The event is signed, JSON-serialized,
// base64-encoded, and sent as:
//
//	Authorization: Nostr <base64 event JSON>
//
// Events are single-use: one is built per request attempt and never
// reused.
package reqsig

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/podstr-project/podstr/lib/identity"
)

// AuthEventKind is the reserved event kind for HTTP request
// authentication.
const AuthEventKind = 27235

// Scheme is the Authorization scheme prefix.
const Scheme = "Nostr"

// PayloadDigest returns the hex sha256 digest of a request body. This
// is the same hash the identity protocol uses for event IDs, so a
// server verifying the event needs only one primitive.
func PayloadDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// bodyCarrying reports whether the method conventionally carries a
// request body. The payload tag is only meaningful for these.
func bodyCarrying(method string) bool {
	switch strings.ToUpper(method) {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// AuthEvent builds and signs a single-use authentication event for one
// request. digest may be empty; it is included only for body-carrying
// methods.
func AuthEvent(id *identity.Identity, rawURL, method, digest string, now time.Time) (*nostr.Event, error) {
	tags := nostr.Tags{
		nostr.Tag{"u", rawURL},
		nostr.Tag{"method", strings.ToUpper(method)},
	}
	if digest != "" && bodyCarrying(method) {
		tags = append(tags, nostr.Tag{"payload", digest})
	}

	event := nostr.Event{
		Kind:      AuthEventKind,
		CreatedAt: nostr.Timestamp(now.Unix()),
		Tags:      tags,
		Content:   "",
	}
	if err := id.Sign(&event); err != nil {
		return nil, fmt.Errorf("reqsig: %w", err)
	}
	return &event, nil
}

// AuthHeader builds the Authorization header value for one request:
// "Nostr " followed by the base64 of the signed event's JSON form.
func AuthHeader(id *identity.Identity, rawURL, method, digest string, now time.Time) (string, error) {
	event, err := AuthEvent(id, rawURL, method, digest, now)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("reqsig: encoding auth event: %w", err)
	}
	return Scheme + " " + base64.StdEncoding.EncodeToString(encoded), nil
}
