// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package turtle

import (
	"reflect"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
)

func sampleEvent() *Event {
	return &Event{
		Event: nostr.Event{
			ID:        "e1",
			Kind:      1,
			PubKey:    strings.Repeat("aa", 32),
			CreatedAt: nostr.Timestamp(1700000000),
			Sig:       strings.Repeat("bb", 64),
			Content:   "hi",
			Tags:      nostr.Tags{},
		},
	}
}

func TestEventRoundTrip(t *testing.T) {
	original := sampleEvent()
	decoded, err := DecodeEvent(EncodeEvent(original))
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.ID != "e1" || decoded.Kind != 1 {
		t.Errorf("decoded id/kind = %q/%d", decoded.ID, decoded.Kind)
	}
	if decoded.PubKey != original.PubKey || decoded.Sig != original.Sig {
		t.Error("pubkey or sig did not round-trip")
	}
	if decoded.CreatedAt != original.CreatedAt {
		t.Errorf("created_at = %d, want %d", decoded.CreatedAt, original.CreatedAt)
	}
	if decoded.Content != "hi" {
		t.Errorf("content = %q, want %q", decoded.Content, "hi")
	}
}

func TestEventRoundTripTags(t *testing.T) {
	original := sampleEvent()
	original.Tags = nostr.Tags{
		{"e", strings.Repeat("cc", 32), "wss://relay.example"},
		{"p", strings.Repeat("dd", 32)},
		{"subject", "greetings"},
	}

	decoded, err := DecodeEvent(EncodeEvent(original))
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if !reflect.DeepEqual(decoded.Tags, original.Tags) {
		t.Errorf("tags = %v, want %v", decoded.Tags, original.Tags)
	}
}

func TestEventRoundTripCommaInTagValue(t *testing.T) {
	original := sampleEvent()
	original.Tags = nostr.Tags{{"title", "one, two, three"}, {"alt", `back\slash`}}

	decoded, err := DecodeEvent(EncodeEvent(original))
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if !reflect.DeepEqual(decoded.Tags, original.Tags) {
		t.Errorf("tags = %v, want %v", decoded.Tags, original.Tags)
	}
}

func TestEventRoundTripContentEscapes(t *testing.T) {
	cases := []string{
		"line one\nline two",
		`quote " inside`,
		`trailing backslash \`,
		"carriage\rreturn",
		`mixed \" everything
here`,
	}
	for _, content := range cases {
		original := sampleEvent()
		original.Content = content
		decoded, err := DecodeEvent(EncodeEvent(original))
		if err != nil {
			t.Fatalf("DecodeEvent failed for %q: %v", content, err)
		}
		if decoded.Content != content {
			t.Errorf("content round-trip: got %q, want %q", decoded.Content, content)
		}
	}
}

func TestEventEncryptionFlag(t *testing.T) {
	original := sampleEvent()
	original.Encrypted = true
	original.EncryptionMethod = "nip44"

	text := EncodeEvent(original)
	if !strings.Contains(text, "nostr:encrypted true") {
		t.Error("encoded document missing encrypted flag")
	}

	decoded, err := DecodeEvent(text)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if !decoded.Encrypted || decoded.EncryptionMethod != "nip44" {
		t.Errorf("encryption = %v/%q", decoded.Encrypted, decoded.EncryptionMethod)
	}

	plain := EncodeEvent(sampleEvent())
	if strings.Contains(plain, "encrypted") {
		t.Error("plain document carries encryption predicates")
	}
}

func TestDecodeEventMissingRequiredField(t *testing.T) {
	full := EncodeEvent(sampleEvent())
	for _, predicate := range []string{"nostr:id", "nostr:pubkey", "nostr:sig", "nostr:kind"} {
		var mutilated []string
		for _, line := range strings.Split(full, "\n") {
			if strings.Contains(line, predicate+" ") {
				continue
			}
			mutilated = append(mutilated, line)
		}
		if _, err := DecodeEvent(strings.Join(mutilated, "\n")); err == nil {
			t.Errorf("expected error with %s removed", predicate)
		}
	}
}

func TestDecodeEventOptionalFieldsIndependent(t *testing.T) {
	text := "@prefix nostr: <" + EventOntology + "> .\n\n" +
		"<urn:nostr:event:e9>\n" +
		"    a nostr:Event ;\n" +
		`    nostr:id "e9" ;` + "\n" +
		"    nostr:kind 30023 ;\n" +
		`    nostr:pubkey "` + strings.Repeat("aa", 32) + `" ;` + "\n" +
		`    nostr:sig "` + strings.Repeat("bb", 64) + `" .` + "\n"

	decoded, err := DecodeEvent(text)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.Content != "" || decoded.CreatedAt != 0 || len(decoded.Tags) != 0 {
		t.Errorf("optional fields not zero-valued: %+v", decoded)
	}
}

func TestDecodeEventLegacyFlattenedTags(t *testing.T) {
	text := "@prefix nostr: <" + EventOntology + "> .\n\n" +
		"<urn:nostr:event:e2>\n" +
		`    nostr:id "e2" ;` + "\n" +
		"    nostr:kind 1 ;\n" +
		`    nostr:pubkey "` + strings.Repeat("aa", 32) + `" ;` + "\n" +
		`    nostr:tags "e,abcd,p,efgh" ;` + "\n" +
		`    nostr:sig "` + strings.Repeat("bb", 64) + `" .` + "\n"

	decoded, err := DecodeEvent(text)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	// The legacy join loses tag grouping; the elements come back as a
	// single flat tag.
	want := nostr.Tags{{"e", "abcd", "p", "efgh"}}
	if !reflect.DeepEqual(decoded.Tags, want) {
		t.Errorf("legacy tags = %v, want %v", decoded.Tags, want)
	}
}

func TestDecodeEventContentMentioningPredicates(t *testing.T) {
	original := sampleEvent()
	original.Kind = 1
	original.Content = "how turtle docs work: nostr:encrypted true marks ciphertext,\n" +
		"nostr:kind 9999 names the kind, nostr:created_at 1 the timestamp"

	decoded, err := DecodeEvent(EncodeEvent(original))
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.Encrypted {
		t.Error("plain event decoded as encrypted from predicate text inside content")
	}
	if decoded.Kind != 1 {
		t.Errorf("kind = %d, want 1 (content mention must not win)", decoded.Kind)
	}
	if decoded.CreatedAt != original.CreatedAt {
		t.Errorf("created_at = %d, want %d", decoded.CreatedAt, original.CreatedAt)
	}
	if decoded.Content != original.Content {
		t.Errorf("content = %q, want %q", decoded.Content, original.Content)
	}
}

func TestDecodeEventTagValueMentioningPredicates(t *testing.T) {
	original := sampleEvent()
	original.Tags = nostr.Tags{{"alt", "nostr:encrypted true"}}

	decoded, err := DecodeEvent(EncodeEvent(original))
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.Encrypted {
		t.Error("plain event decoded as encrypted from predicate text inside a tag value")
	}
	if !reflect.DeepEqual(decoded.Tags, original.Tags) {
		t.Errorf("tags = %v, want %v", decoded.Tags, original.Tags)
	}
}

func TestEventRoundTripEmptyTag(t *testing.T) {
	original := sampleEvent()
	original.Tags = nostr.Tags{{}, {"p", strings.Repeat("dd", 32)}}

	decoded, err := DecodeEvent(EncodeEvent(original))
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if !reflect.DeepEqual(decoded.Tags, original.Tags) {
		t.Errorf("tags = %v, want %v", decoded.Tags, original.Tags)
	}
}

func TestDecodeEventIgnoresIncidentalWhitespace(t *testing.T) {
	text := EncodeEvent(sampleEvent())
	padded := strings.ReplaceAll(text, " ;", "  ;")
	if _, err := DecodeEvent("\n\n" + padded + "\n\n"); err != nil {
		t.Fatalf("DecodeEvent failed on padded document: %v", err)
	}
}
