// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"

	"github.com/podstr-project/podstr/lib/identity"
	"github.com/podstr-project/podstr/lib/turtle"
)

// NewIdentity generates a throwaway signing identity.
func NewIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	id, err := identity.Generate()
	if err != nil {
		t.Fatalf("generating identity: %v", err)
	}
	return id
}

// SignedEvent builds and signs a minimal kind-1 event with the given
// content, so tests get a well-formed id, pubkey, and signature
// without repeating the boilerplate.
func SignedEvent(t *testing.T, id *identity.Identity, content string) turtle.Event {
	t.Helper()
	event := turtle.Event{
		Event: nostr.Event{
			Kind:      1,
			CreatedAt: nostr.Timestamp(1700000000),
			Content:   content,
		},
	}
	if err := id.Sign(&event.Event); err != nil {
		t.Fatalf("signing event: %v", err)
	}
	return event
}
