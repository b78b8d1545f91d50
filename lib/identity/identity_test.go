// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
)

func TestGenerate(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !ValidPublicKey(id.PublicKey) {
		t.Errorf("generated public key %q is not valid hex", id.PublicKey)
	}
	if !id.CanSign() {
		t.Error("generated identity cannot sign")
	}
}

func TestNpub(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	npub, err := id.Npub()
	if err != nil {
		t.Fatalf("Npub failed: %v", err)
	}
	if !strings.HasPrefix(npub, "npub1") {
		t.Errorf("npub %q missing npub1 prefix", npub)
	}
}

func TestValidPublicKey(t *testing.T) {
	cases := []struct {
		key   string
		valid bool
	}{
		{strings.Repeat("ab", 32), true},
		{strings.Repeat("AB", 32), false},
		{strings.Repeat("ab", 31), false},
		{strings.Repeat("zz", 32), false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidPublicKey(c.key); got != c.valid {
			t.Errorf("ValidPublicKey(%q) = %v, want %v", c.key, got, c.valid)
		}
	}
}

func TestSign(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	event := nostr.Event{
		Kind:      1,
		CreatedAt: nostr.Timestamp(1700000000),
		Content:   "hello",
	}
	if err := id.Sign(&event); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if event.ID == "" || event.Sig == "" {
		t.Fatal("signed event missing ID or Sig")
	}
	if event.PubKey != id.PublicKey {
		t.Errorf("event.PubKey = %q, want %q", event.PubKey, id.PublicKey)
	}
	ok, err := event.CheckSignature()
	if err != nil || !ok {
		t.Errorf("signature did not verify: ok=%v err=%v", ok, err)
	}
}

func TestSignWithoutSecretKey(t *testing.T) {
	id, err := ReadOnly(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("ReadOnly failed: %v", err)
	}
	if id.CanSign() {
		t.Error("read-only identity claims it can sign")
	}
	if err := id.Sign(&nostr.Event{Kind: 1}); err == nil {
		t.Fatal("expected error signing without secret key")
	}
}

func TestEncryptContentRoundTrip(t *testing.T) {
	sender, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	recipient, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ciphertext, err := sender.EncryptContent("secret note", recipient.PublicKey)
	if err != nil {
		t.Fatalf("EncryptContent failed: %v", err)
	}
	if ciphertext == "secret note" {
		t.Fatal("ciphertext equals plaintext")
	}

	plaintext, err := recipient.DecryptContent(ciphertext, sender.PublicKey)
	if err != nil {
		t.Fatalf("DecryptContent failed: %v", err)
	}
	if plaintext != "secret note" {
		t.Errorf("decrypted = %q, want %q", plaintext, "secret note")
	}
}

func TestEncryptContentSelf(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	ciphertext, err := id.EncryptContent("note to self", id.PublicKey)
	if err != nil {
		t.Fatalf("EncryptContent failed: %v", err)
	}
	plaintext, err := id.DecryptContent(ciphertext, id.PublicKey)
	if err != nil {
		t.Fatalf("DecryptContent failed: %v", err)
	}
	if plaintext != "note to self" {
		t.Errorf("decrypted = %q, want %q", plaintext, "note to self")
	}
}
