// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package turtle

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// EventOntology is the prefix URI for event predicates.
const EventOntology = "https://nostr.org/ontology#"

// Event is a domain event as stored in a pod: a Nostr event plus the
// bridge's encryption marker. Encrypted events carry NIP-44 ciphertext
// in Content and are filed under the encrypted-events container.
type Event struct {
	nostr.Event

	// Encrypted marks the content as ciphertext.
	Encrypted bool
	// EncryptionMethod names the scheme ("nip44"). Only meaningful
	// when Encrypted is set.
	EncryptionMethod string
}

// EncodeEvent renders one event as a Turtle document: a single subject
// block with one predicate per field. Tags are encoded one predicate
// per tag index (tag0, tag1, …) with comma-joined, comma-escaped
// elements, so any tag value round-trips. The encryption predicates
// are emitted only when set.
func EncodeEvent(event *Event) string {
	var builder strings.Builder
	builder.WriteString("@prefix nostr: <" + EventOntology + "> .\n\n")
	builder.WriteString("<urn:nostr:event:" + event.ID + ">\n")
	builder.WriteString("    a nostr:Event ;\n")
	builder.WriteString(`    nostr:id "` + EscapeLiteral(event.ID) + "\" ;\n")
	builder.WriteString("    nostr:kind " + strconv.Itoa(event.Kind) + " ;\n")
	builder.WriteString(`    nostr:pubkey "` + EscapeLiteral(event.PubKey) + "\" ;\n")
	builder.WriteString("    nostr:created_at " + strconv.FormatInt(int64(event.CreatedAt), 10) + " ;\n")
	for i, tag := range event.Tags {
		builder.WriteString(fmt.Sprintf("    nostr:tag%d \"%s\" ;\n", i, EscapeLiteral(joinTagElements(tag))))
	}
	builder.WriteString(`    nostr:content "` + EscapeLiteral(event.Content) + "\" ;\n")
	if event.Encrypted {
		builder.WriteString("    nostr:encrypted true ;\n")
		if event.EncryptionMethod != "" {
			builder.WriteString(`    nostr:encryptionMethod "` + EscapeLiteral(event.EncryptionMethod) + "\" ;\n")
		}
	}
	builder.WriteString(`    nostr:sig "` + EscapeLiteral(event.Sig) + "\" .\n")
	return builder.String()
}

// Field extraction patterns. Each field is matched independently; a
// pattern that does not match leaves its field zero-valued. The quoted
// forms are escape-aware so content containing \" does not truncate
// the match. The unquoted forms are anchored to the start of a line:
// EscapeLiteral keeps every literal on a single line, so anchoring
// stops content such as "nostr:encrypted true" from supplying a field
// it merely mentions.
var (
	eventIDPattern        = regexp.MustCompile(`nostr:id\s+"((?:[^"\\]|\\.)*)"`)
	eventKindPattern      = regexp.MustCompile(`(?m)^\s*nostr:kind\s+(\d+)`)
	eventPubKeyPattern    = regexp.MustCompile(`nostr:pubkey\s+"((?:[^"\\]|\\.)*)"`)
	eventCreatedAtPattern = regexp.MustCompile(`(?m)^\s*nostr:created_at\s+(\d+)`)
	eventContentPattern   = regexp.MustCompile(`nostr:content\s+"((?:[^"\\]|\\.)*)"`)
	eventSigPattern       = regexp.MustCompile(`nostr:sig\s+"((?:[^"\\]|\\.)*)"`)
	eventTagPattern       = regexp.MustCompile(`nostr:tag(\d+)\s+"((?:[^"\\]|\\.)*)"`)
	eventEncryptedPattern = regexp.MustCompile(`(?m)^\s*nostr:encrypted\s+true`)
	eventEncMethodPattern = regexp.MustCompile(`nostr:encryptionMethod\s+"((?:[^"\\]|\\.)*)"`)

	// Legacy form: every tag array flattened into one comma-joined
	// literal under a single predicate. The grouping is unrecoverable;
	// the elements come back as one flat tag.
	eventLegacyTagsPattern = regexp.MustCompile(`nostr:tags\s+"((?:[^"\\]|\\.)*)"`)
)

// DecodeEvent extracts an event from a Turtle document produced by
// EncodeEvent. It returns an error if any of id, public key,
// signature, or kind is absent; all other fields decode independently
// and default to their zero values.
func DecodeEvent(text string) (*Event, error) {
	event := &Event{}

	idMatch := eventIDPattern.FindStringSubmatch(text)
	kindMatch := eventKindPattern.FindStringSubmatch(text)
	pubKeyMatch := eventPubKeyPattern.FindStringSubmatch(text)
	sigMatch := eventSigPattern.FindStringSubmatch(text)
	if idMatch == nil || kindMatch == nil || pubKeyMatch == nil || sigMatch == nil {
		return nil, fmt.Errorf("turtle: document is missing a required event field")
	}
	event.ID = UnescapeLiteral(idMatch[1])
	event.PubKey = UnescapeLiteral(pubKeyMatch[1])
	event.Sig = UnescapeLiteral(sigMatch[1])

	kind, err := strconv.Atoi(kindMatch[1])
	if err != nil {
		return nil, fmt.Errorf("turtle: invalid kind %q: %w", kindMatch[1], err)
	}
	event.Kind = kind

	if match := eventCreatedAtPattern.FindStringSubmatch(text); match != nil {
		createdAt, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("turtle: invalid created_at %q: %w", match[1], err)
		}
		event.CreatedAt = nostr.Timestamp(createdAt)
	}

	if match := eventContentPattern.FindStringSubmatch(text); match != nil {
		event.Content = UnescapeLiteral(match[1])
	}

	event.Tags = decodeTags(text)

	if eventEncryptedPattern.MatchString(text) {
		event.Encrypted = true
		if match := eventEncMethodPattern.FindStringSubmatch(text); match != nil {
			event.EncryptionMethod = UnescapeLiteral(match[1])
		}
	}

	return event, nil
}

// decodeTags collects tagN predicates in index order, falling back to
// the legacy flattened form.
func decodeTags(text string) nostr.Tags {
	matches := eventTagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		if legacy := eventLegacyTagsPattern.FindStringSubmatch(text); legacy != nil {
			elements := splitTagElements(UnescapeLiteral(legacy[1]))
			return nostr.Tags{nostr.Tag(elements)}
		}
		return nil
	}

	type indexedTag struct {
		index int
		tag   nostr.Tag
	}
	indexed := make([]indexedTag, 0, len(matches))
	for _, match := range matches {
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		elements := splitTagElements(UnescapeLiteral(match[2]))
		indexed = append(indexed, indexedTag{index: index, tag: nostr.Tag(elements)})
	}
	sort.Slice(indexed, func(i, j int) bool { return indexed[i].index < indexed[j].index })

	tags := make(nostr.Tags, 0, len(indexed))
	for _, entry := range indexed {
		tags = append(tags, entry.tag)
	}
	return tags
}
