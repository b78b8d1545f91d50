// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package turtle

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode is a WAC access mode.
type Mode string

const (
	Read    Mode = "Read"
	Write   Mode = "Write"
	Append  Mode = "Append"
	Control Mode = "Control"
)

// AllModes is every mode in canonical order.
var AllModes = []Mode{Read, Write, Append, Control}

// SubjectType discriminates who an authorization applies to.
type SubjectType string

const (
	// SubjectAgent is a single agent, identified by WebID URL.
	SubjectAgent SubjectType = "agent"
	// SubjectGroup is an agent group, identified by group document URL.
	SubjectGroup SubjectType = "group"
	// SubjectAuthenticated is any logged-in agent.
	SubjectAuthenticated SubjectType = "authenticated"
	// SubjectPublic is everyone, logged in or not.
	SubjectPublic SubjectType = "public"
)

// Subject identifies who an access-control entry grants to. ID is the
// agent or group URL; it is empty for the class subjects.
type Subject struct {
	Type SubjectType
	ID   string
}

// Agent returns an agent subject for a WebID URL.
func Agent(webID string) Subject { return Subject{Type: SubjectAgent, ID: webID} }

// Group returns a group subject for a group document URL.
func Group(url string) Subject { return Subject{Type: SubjectGroup, ID: url} }

// Authenticated is the any-logged-in-agent subject.
var Authenticated = Subject{Type: SubjectAuthenticated}

// Public is the everyone subject.
var Public = Subject{Type: SubjectPublic}

// Entry is one access-control entry: a subject, the modes granted to
// it, the resource it applies to, and whether contained resources
// inherit it by default.
type Entry struct {
	Subject  Subject
	Modes    []Mode
	Resource string
	Default  bool
}

// HasMode reports whether the entry grants mode.
func (e Entry) HasMode(mode Mode) bool {
	for _, m := range e.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// NormalizeModes deduplicates modes and orders them canonically
// (Read, Write, Append, Control). Unknown modes are dropped.
func NormalizeModes(modes []Mode) []Mode {
	present := map[Mode]bool{}
	for _, mode := range modes {
		present[mode] = true
	}
	var normalized []Mode
	for _, mode := range AllModes {
		if present[mode] {
			normalized = append(normalized, mode)
		}
	}
	return normalized
}

// EncodeACL renders an access-control document: one authorization
// block per entry. The subject is emitted as exactly one predicate per
// subject type, each mode as its own triple, and the default flag as
// an acl:default triple.
func EncodeACL(entries []Entry, resourceURL string) string {
	var builder strings.Builder
	builder.WriteString("@prefix acl: <http://www.w3.org/ns/auth/acl#> .\n")
	builder.WriteString("@prefix foaf: <http://xmlns.com/foaf/0.1/> .\n")

	for i, entry := range entries {
		builder.WriteString(fmt.Sprintf("\n<#auth%d>\n", i))
		builder.WriteString("    a acl:Authorization ;\n")
		switch entry.Subject.Type {
		case SubjectAgent:
			builder.WriteString("    acl:agent <" + entry.Subject.ID + "> ;\n")
		case SubjectGroup:
			builder.WriteString("    acl:agentGroup <" + entry.Subject.ID + "> ;\n")
		case SubjectAuthenticated:
			builder.WriteString("    acl:agentClass acl:AuthenticatedAgent ;\n")
		case SubjectPublic:
			builder.WriteString("    acl:agentClass foaf:Agent ;\n")
		}
		builder.WriteString("    acl:accessTo <" + resourceURL + "> ;\n")
		if entry.Default {
			builder.WriteString("    acl:default <" + resourceURL + "> ;\n")
		}
		modes := NormalizeModes(entry.Modes)
		for j, mode := range modes {
			terminator := " ;"
			if j == len(modes)-1 {
				terminator = " ."
			}
			builder.WriteString("    acl:mode acl:" + string(mode) + terminator + "\n")
		}
	}
	return builder.String()
}

var (
	aclModePattern          = regexp.MustCompile(`acl:mode\s+acl:(Read|Write|Append|Control)`)
	aclAgentPattern         = regexp.MustCompile(`acl:agent\s+<([^>]+)>`)
	aclGroupPattern         = regexp.MustCompile(`acl:agentGroup\s+<([^>]+)>`)
	aclAuthenticatedPattern = regexp.MustCompile(`acl:agentClass\s+acl:AuthenticatedAgent`)
	aclPublicPattern        = regexp.MustCompile(`acl:agentClass\s+foaf:Agent`)
	aclDefaultPattern       = regexp.MustCompile(`acl:default\s+<`)
	aclBlockPattern         = regexp.MustCompile(`(?s)<#[^>]*>.*?\.\s*(?:\n|$)`)
)

// DecodeACL extracts access-control entries from a document produced
// by EncodeACL. The block split is heuristic, not a grammar parse. Per
// block, modes are collected first; the subject is the first matching
// pattern in priority order agent, group, authenticated, public —
// multiple subject predicates in one block silently keep only the
// first match. A block with zero modes or no recognized subject is
// dropped.
func DecodeACL(text, resourceURL string) []Entry {
	var entries []Entry
	for _, block := range splitACLBlocks(text) {
		modeMatches := aclModePattern.FindAllStringSubmatch(block, -1)
		if len(modeMatches) == 0 {
			continue
		}
		var modes []Mode
		for _, match := range modeMatches {
			modes = append(modes, Mode(match[1]))
		}

		subject, ok := decodeSubject(block)
		if !ok {
			continue
		}

		entries = append(entries, Entry{
			Subject:  subject,
			Modes:    NormalizeModes(modes),
			Resource: resourceURL,
			Default:  aclDefaultPattern.MatchString(block),
		})
	}
	return entries
}

// splitACLBlocks isolates authorization blocks: from each fragment
// subject to the terminating period.
func splitACLBlocks(text string) []string {
	return aclBlockPattern.FindAllString(text, -1)
}

// decodeSubject finds the block's subject, trying the patterns in
// priority order.
func decodeSubject(block string) (Subject, bool) {
	if match := aclAgentPattern.FindStringSubmatch(block); match != nil {
		return Agent(match[1]), true
	}
	if match := aclGroupPattern.FindStringSubmatch(block); match != nil {
		return Group(match[1]), true
	}
	if aclAuthenticatedPattern.MatchString(block) {
		return Authenticated, true
	}
	if aclPublicPattern.MatchString(block) {
		return Public, true
	}
	return Subject{}, false
}
