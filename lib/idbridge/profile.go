// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package idbridge

import (
	"regexp"
	"strings"

	"github.com/podstr-project/podstr/lib/turtle"
)

// Profile is the identity linkage carried by a pod profile document.
type Profile struct {
	// PubKey is the hex public key embedded in the document.
	PubKey string
	// Name is the display name, empty when the document carries none.
	Name string
}

// ProfileDocument renders a profile document that embeds the key, so
// the WebID can be resolved back to the Nostr identity. name is
// optional.
func ProfileDocument(pubkey, npub, name string) string {
	var builder strings.Builder
	builder.WriteString("@prefix foaf: <http://xmlns.com/foaf/0.1/> .\n")
	builder.WriteString("@prefix nostr: <" + turtle.EventOntology + "> .\n\n")
	builder.WriteString("<> a foaf:PersonalProfileDocument ;\n")
	builder.WriteString("    foaf:primaryTopic <#me> .\n\n")
	builder.WriteString("<#me> a foaf:Person ;\n")
	if name != "" {
		builder.WriteString("    foaf:name \"" + turtle.EscapeLiteral(name) + "\" ;\n")
	}
	builder.WriteString("    nostr:npub \"" + npub + "\" ;\n")
	builder.WriteString("    nostr:pubkey \"" + pubkey + "\" .\n")
	return builder.String()
}

var (
	profilePubkeyPattern = regexp.MustCompile(`nostr:pubkey\s+"([0-9a-f]{64})"`)
	profileNamePattern   = regexp.MustCompile(`foaf:name\s+"((?:[^"\\]|\\.)*)"`)
)

// ParseProfile extracts the identity linkage from a profile document.
// It reports false when the document embeds no public key. Like the
// event decoder it promises only to invert ProfileDocument, not to
// parse arbitrary RDF.
func ParseProfile(text string) (Profile, bool) {
	match := profilePubkeyPattern.FindStringSubmatch(text)
	if match == nil {
		return Profile{}, false
	}
	return Profile{PubKey: match[1], Name: profileName(text)}, true
}

// profileName extracts the display name on its own, so a document
// missing the key linkage still yields its name during a rebuild.
func profileName(text string) string {
	if match := profileNamePattern.FindStringSubmatch(text); match != nil {
		return turtle.UnescapeLiteral(match[1])
	}
	return ""
}
