// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package turtle

import "strings"

// EscapeLiteral escapes a string for use inside a double-quoted Turtle
// literal: backslash, quote, newline, and carriage return.
func EscapeLiteral(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			builder.WriteString(`\\`)
		case '"':
			builder.WriteString(`\"`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// UnescapeLiteral reverses EscapeLiteral. Unknown escapes pass the
// escaped character through.
func UnescapeLiteral(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped {
			if r == '\\' {
				escaped = true
				continue
			}
			builder.WriteRune(r)
			continue
		}
		switch r {
		case 'n':
			builder.WriteRune('\n')
		case 'r':
			builder.WriteRune('\r')
		default:
			builder.WriteRune(r)
		}
		escaped = false
	}
	return builder.String()
}

// escapeTagElement escapes a single tag element for the comma-joined
// tag literal: backslash and comma. This keeps comma-bearing tag
// values recoverable, which the flat join could not do.
func escapeTagElement(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `,`, `\,`)
}

// joinTagElements encodes one tag (an ordered element list) as a
// single literal value, before literal-level escaping.
func joinTagElements(elements []string) string {
	escaped := make([]string, len(elements))
	for i, element := range elements {
		escaped[i] = escapeTagElement(element)
	}
	return strings.Join(escaped, ",")
}

// splitTagElements reverses joinTagElements: split on unescaped
// commas, then unescape each element. The empty literal decodes as the
// zero-element tag; a tag holding a single empty string encodes to the
// same literal and is folded into that reading.
func splitTagElements(literal string) []string {
	if literal == "" {
		return []string{}
	}
	var elements []string
	var current strings.Builder
	escaped := false
	for _, r := range literal {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case ',':
			elements = append(elements, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	elements = append(elements, current.String())
	return elements
}
