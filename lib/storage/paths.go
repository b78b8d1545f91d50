// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import "strings"

// Container names within a pod space. Provisioning creates all of
// them; storage operations address the first three.
const (
	ContainerEvents          = "events/"
	ContainerEncryptedEvents = "encrypted-events/"
	ContainerDocuments       = "documents/"
	ContainerProfile         = "profile/"
	ContainerInbox           = "inbox/"
)

// Paths are the session's resolved container URLs, derived once from
// the identity's storage root.
type Paths struct {
	Root            string
	PlainEvents     string
	EncryptedEvents string
	Documents       string
	Profile         string
	Inbox           string
}

// DerivePaths resolves the fixed container layout under a pod root.
func DerivePaths(root string) Paths {
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return Paths{
		Root:            root,
		PlainEvents:     root + ContainerEvents,
		EncryptedEvents: root + ContainerEncryptedEvents,
		Documents:       root + ContainerDocuments,
		Profile:         root + ContainerProfile,
		Inbox:           root + ContainerInbox,
	}
}

// Resolve turns a container name or relative path into an absolute URL
// under the root. Absolute URLs pass through unchanged.
func (p Paths) Resolve(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	return p.Root + strings.TrimPrefix(pathOrURL, "/")
}

// ResolveContainer is Resolve plus a guaranteed trailing slash.
func (p Paths) ResolveContainer(pathOrURL string) string {
	resolved := p.Resolve(pathOrURL)
	if !strings.HasSuffix(resolved, "/") {
		resolved += "/"
	}
	return resolved
}
